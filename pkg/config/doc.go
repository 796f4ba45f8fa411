// Package config loads the site table from a YAML file, validates its
// invariants, and watches the file for changes so that adding or
// removing a site block reconciles the running scheduler without a
// restart: each reconfiguration reconciles the set of on-disk per-site
// maps with the configured sites.
package config
