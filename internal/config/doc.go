// Package config loads the optional drfkit user configuration.
//
// The file lives at $XDG_CONFIG_HOME/drfkit/drfkit.yaml (or the platform
// equivalent from os.UserConfigDir), or wherever --config points. JSON is
// accepted for files ending in .json. A missing default file is not an
// error: defaults apply.
//
// # Configuration File Structure
//
//	template: ~/skeletons/drf
//	exclude:
//	  - node_modules
//	  - .tox
//	debug: true
//	git:
//	  enabled: true
//	  timeout: 10s
//	  fallback: true
//	env:
//	  DATABASE_URL: sqlite:///db.sqlite3
//	metrics_file: /var/lib/node_exporter/drfkit.prom
//
// Fields absent from the file keep their defaults. Exclusions extend the
// built-in list rather than replacing it. Command-line flags override
// everything here.
//
// # Usage
//
//	cfg, err := config.Load(flagConfig)
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.GitTimeout()
package config
