// Package config provides configuration for the reactive tooling: the
// devtools inspector, snapshot export, benchmarks and the runtime options
// the CLI builds runtimes with.
//
// The configuration is stored in reactive.json or reactive.yaml in the
// working directory. Environment variables prefixed with REACTIVE_ override
// file values.
//
// # Configuration File Structure
//
//	{
//	  "runtime": {
//	    "flushBudget": 10000,
//	    "goroutineCheck": true
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "devtools": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "publishInterval": "250ms"
//	  },
//	  "metrics": {
//	    "namespace": "reactive"
//	  },
//	  "snapshot": {
//	    "destination": "s3://my-bucket/graphs/latest.json.zst",
//	    "compress": true
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.DevtoolsURL())
package config
