// Package config loads the searchsync configuration with Viper. YAML, JSON
// and TOML files are supported, and every key can be overridden from the
// environment:
//
//	export SEARCHSYNC_SERVER_PORT=9000
//	export SEARCHSYNC_DATA_SEARCH_MEILISEARCH_HOST=http://meili:7700
//
// Example:
//
//	app_name: blog
//	server:
//	  port: 8080
//	auth:
//	  jwt:
//	    secret: change-me
//	data:
//	  database:
//	    master:
//	      driver: postgres
//	      source: postgres://blog@localhost/blog
//	  search:
//	    meilisearch:
//	      host: http://localhost:7700
//	    models:
//	      - name: posts
//	        filterable: [status]
//	  queue:
//	    enabled: true
//	    connection: redis
//
// The loaded configuration is validated; a file change seen by Watch is
// applied only when the new configuration is valid.
package config
