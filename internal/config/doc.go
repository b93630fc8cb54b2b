// Package config loads the nimble project configuration.
//
// The configuration may be written as YAML, TOML or JSON; the format is
// chosen by file extension.
//
//	name: shop
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	log:
//	  level: debug
//	  format: json
//	auth:
//	  loginPath: /login
//	  homePath: /
//	pages:
//	  home:
//	    template: pages/home.html
//	    script: pages/home.js
//	routes:
//	  - path: /
//	    page: home
//	    priority: true
//
// # Usage
//
//	cfg, err := config.Load("nimble.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Listening on", cfg.Address())
package config
