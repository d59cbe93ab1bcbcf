package config

import (
	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/waypoint/internal/errors"
)

// EnvPrefix is prepended to every override variable.
const EnvPrefix = "WAYPOINT_"

// envOverrides lists the settings that may come from the environment.
// Empty or zero values leave the file value alone.
type envOverrides struct {
	Mode            string `env:"MODE"`
	Base            string `env:"BASE"`
	DevPort         int    `env:"DEV_PORT"`
	DevHost         string `env:"DEV_HOST"`
	BuildOutput     string `env:"BUILD_OUTPUT"`
	PublishBucket   string `env:"PUBLISH_BUCKET"`
	PublishRegion   string `env:"PUBLISH_REGION"`
	PublishPrefix   string `env:"PUBLISH_PREFIX"`
	PublishEndpoint string `env:"PUBLISH_ENDPOINT"`
}

// ApplyEnv overrides c with WAYPOINT_* variables. A nil environ reads the
// process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var o envOverrides
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return errors.New("E123").WithDetail(err.Error()).Wrap(err)
	}

	setString(&c.Mode, o.Mode)
	setString(&c.Base, o.Base)
	setString(&c.Dev.Host, o.DevHost)
	setString(&c.Build.Output, o.BuildOutput)
	setString(&c.Publish.Bucket, o.PublishBucket)
	setString(&c.Publish.Region, o.PublishRegion)
	setString(&c.Publish.Prefix, o.PublishPrefix)
	setString(&c.Publish.Endpoint, o.PublishEndpoint)
	if o.DevPort != 0 {
		c.Dev.Port = o.DevPort
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
