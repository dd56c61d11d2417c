package recipe

import (
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/go-connections/nat"

	"github.com/kilnhq/kiln/internal/template"
)

// Applies one CONFIG option to the image configuration, validating its
// value shape.
type configOption func(v Value, path string, cfg *container.Config) error

// The catalog of supported CONFIG options. Each maps a recipe key to the
// corresponding image configuration field understood by the daemon.
var configCatalog = map[string]configOption{
	"CMD": func(v Value, path string, cfg *container.Config) error {
		cmd, err := commandList(v, path)
		if err != nil {
			return err
		}
		cfg.Cmd = cmd
		return nil
	},
	"ENTRYPOINT": func(v Value, path string, cfg *container.Config) error {
		entrypoint, err := commandList(v, path)
		if err != nil {
			return err
		}
		cfg.Entrypoint = entrypoint
		return nil
	},
	"ENV": func(v Value, path string, cfg *container.Config) error {
		if v.Kind() != Mapping {
			return configErrorf(path, "expected a mapping of environment variables")
		}
		for _, e := range v.Entries() {
			cfg.Env = append(cfg.Env, e.Key+"="+template.Render(e.Value.Scalar()))
		}
		return nil
	},
	"EXPOSE": func(v Value, path string, cfg *container.Config) error {
		if v.Kind() != Mapping {
			return configErrorf(path, "expected a mapping of port specifications")
		}
		cfg.ExposedPorts = make(nat.PortSet, len(v.Entries()))
		for _, e := range v.Entries() {
			port, err := parsePort(e.Key)
			if err != nil {
				return configErrorf(path, "invalid port specification %q: %v", e.Key, err)
			}
			cfg.ExposedPorts[port] = struct{}{}
		}
		return nil
	},
	"LABELS": func(v Value, path string, cfg *container.Config) error {
		if v.Kind() != Mapping {
			return configErrorf(path, "expected a mapping of labels")
		}
		cfg.Labels = make(map[string]string, len(v.Entries()))
		for _, e := range v.Entries() {
			cfg.Labels[e.Key] = template.Render(e.Value.Scalar())
		}
		return nil
	},
	"ONBUILD": func(v Value, path string, cfg *container.Config) error {
		onbuild, err := stringList(v, path)
		if err != nil {
			return err
		}
		cfg.OnBuild = onbuild
		return nil
	},
	"USER": func(v Value, path string, cfg *container.Config) error {
		return scalarInto(v, path, &cfg.User)
	},
	"VOLUMES": func(v Value, path string, cfg *container.Config) error {
		volumes, err := stringList(v, path)
		if err != nil {
			return err
		}
		cfg.Volumes = make(map[string]struct{}, len(volumes))
		for _, vol := range volumes {
			cfg.Volumes[vol] = struct{}{}
		}
		return nil
	},
	"WORKDIR": func(v Value, path string, cfg *container.Config) error {
		return scalarInto(v, path, &cfg.WorkingDir)
	},
	"STOPSIGNAL": func(v Value, path string, cfg *container.Config) error {
		return scalarInto(v, path, &cfg.StopSignal)
	},
}

// Converts a CONFIG mapping into the image configuration committed with
// the step's image. Unknown options and wrong value shapes are
// configuration errors.
func imageConfig(v Value, path string) (*container.Config, error) {
	if v.Kind() != Mapping {
		return nil, configErrorf(path, "expected a mapping of image configuration options")
	}

	cfg := &container.Config{}
	for _, e := range v.Entries() {
		apply, ok := configCatalog[e.Key]
		if !ok {
			return nil, configErrorf(path+"."+e.Key, "unknown image configuration option")
		}
		if err := apply(e.Value, path+"."+e.Key, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Extracts a command value: either a single string or a list of strings.
func commandList(v Value, path string) (strslice.StrSlice, error) {
	switch v.Kind() {
	case Scalar:
		return strslice.StrSlice{template.Render(v.Scalar())}, nil
	case Sequence:
		list, err := stringList(v, path)
		if err != nil {
			return nil, err
		}
		return strslice.StrSlice(list), nil
	default:
		return nil, configErrorf(path, "expected a string or a list of strings")
	}
}

// Extracts a scalar string into the target field.
func scalarInto(v Value, path string, target *string) error {
	if v.Kind() != Scalar {
		return configErrorf(path, "expected a string")
	}
	*target = template.Render(v.Scalar())
	return nil
}

// Parses a port specification such as "8080/tcp". A bare port defaults to
// tcp, matching the daemon's behavior.
func parsePort(spec string) (nat.Port, error) {
	proto, port := nat.SplitProtoPort(spec)
	return nat.NewPort(proto, port)
}
