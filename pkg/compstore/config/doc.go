// Package config loads component store settings from YAML or JSON files
// and converts them into store options.
//
// Example:
//
//	cfg, err := config.FromFile("store.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := compstore.NewStore(cfg.StoreOptions()...)
//
// With store.yaml:
//
//	store_id: render-core
//	metrics: true
//	tracing: false
package config
