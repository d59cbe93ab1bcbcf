// Package config loads a waypoint project: waypoint.json for settings,
// routes.yaml for the route table, and modules.yaml for the module
// manifest consumed by the build.
//
// # waypoint.json
//
//	{
//	  "name": "Deep Reading Analyst",
//	  "base": "/depreanalyst-Vue/",
//	  "dev": {"port": 3000, "open": true},
//	  "build": {
//	    "output": "dist",
//	    "manualChunks": {
//	      "vendor-vue": ["vue", "vue-router", "pinia"],
//	      "vendor-crypto": ["crypto-js", "dompurify"]
//	    },
//	    "chunkSizeWarningLimit": 500,
//	    "assetsInlineLimit": 4096
//	  },
//	  "publish": {"bucket": "docs-site", "region": "us-east-1"}
//	}
//
// Environment variables prefixed with WAYPOINT_ override file values; see
// ApplyEnv.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg, err := config.LoadRoutes(cfg.RoutesPath(), nil)
package config
