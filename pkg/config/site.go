package config

import (
	"fmt"
	"time"
)

// rawSite mirrors the YAML shape of a site block. Every wait field is
// expressed in whole seconds ("revisit_wait (non-negative seconds ...)"),
// which keeps the file format plain integers instead of requiring a
// custom duration-string unmarshaler.
type rawSite struct {
	SiteID             string `yaml:"site_id"`
	RootURL            string `yaml:"root_url"`
	DefaultRevisitWait int64  `yaml:"default_revisit_wait"`
	MinRevisitWait     int64  `yaml:"min_revisit_wait"`
	MaxRevisitWait     int64  `yaml:"max_revisit_wait"`
	RequestWait        int64  `yaml:"request_wait"`
	ErrorWait          int64  `yaml:"error_wait"`
}

// Site is one configured crawl target. SiteID is the opaque, stable
// string used as the bucket name throughout pkg/store; changing it is
// equivalent to removing the old site and adding a new one.
type Site struct {
	SiteID             string
	RootURL            string
	DefaultRevisitWait time.Duration
	MinRevisitWait     time.Duration
	MaxRevisitWait     time.Duration
	RequestWait        time.Duration
	ErrorWait          time.Duration
}

func (r rawSite) toSite() Site {
	return Site{
		SiteID:             r.SiteID,
		RootURL:            r.RootURL,
		DefaultRevisitWait: time.Duration(r.DefaultRevisitWait) * time.Second,
		MinRevisitWait:     time.Duration(r.MinRevisitWait) * time.Second,
		MaxRevisitWait:     time.Duration(r.MaxRevisitWait) * time.Second,
		RequestWait:        time.Duration(r.RequestWait) * time.Second,
		ErrorWait:          time.Duration(r.ErrorWait) * time.Second,
	}
}

// Validate enforces the invariants a site record must satisfy:
// min_revisit_wait <= default_revisit_wait <= max_revisit_wait
// and request_wait <= error_wait.
func (s Site) Validate() error {
	if s.SiteID == "" {
		return fmt.Errorf("config: site missing site_id")
	}
	if s.RootURL == "" {
		return fmt.Errorf("config: site %q missing root_url", s.SiteID)
	}
	if s.MinRevisitWait > s.DefaultRevisitWait {
		return fmt.Errorf("config: site %q: min_revisit_wait > default_revisit_wait", s.SiteID)
	}
	if s.DefaultRevisitWait > s.MaxRevisitWait {
		return fmt.Errorf("config: site %q: default_revisit_wait > max_revisit_wait", s.SiteID)
	}
	if s.RequestWait > s.ErrorWait {
		return fmt.Errorf("config: site %q: request_wait > error_wait", s.SiteID)
	}
	return nil
}
