// Package config provides configuration parsing for counsel hosts.
//
// The configuration is stored in counsel.json in the working directory.
// This package handles loading, saving, and validating configuration.
// Durations are Go duration strings.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000
//	  },
//	  "upstream": {
//	    "baseURL": "http://localhost:8080",
//	    "timeout": "30s"
//	  },
//	  "toast": {
//	    "duration": "5s",
//	    "transition": "300ms"
//	  },
//	  "submit": {
//	    "safetyTimeout": "5s"
//	  },
//	  "paths": {
//	    "pages": "pages.yaml",
//	    "prefs": ".counsel/prefs.json"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "counsel"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
