package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSite() Site {
	return Site{
		SiteID:             "site-a",
		RootURL:            "ftp://example.test/",
		MinRevisitWait:     10 * time.Second,
		DefaultRevisitWait: 100 * time.Second,
		MaxRevisitWait:     1000 * time.Second,
		RequestWait:        5 * time.Second,
		ErrorWait:          30 * time.Second,
	}
}

func TestSiteValidateOK(t *testing.T) {
	assert.NoError(t, validSite().Validate())
}

func TestSiteValidateMissingFields(t *testing.T) {
	s := validSite()
	s.SiteID = ""
	assert.Error(t, s.Validate())

	s = validSite()
	s.RootURL = ""
	assert.Error(t, s.Validate())
}

func TestSiteValidateRevisitWaitOrdering(t *testing.T) {
	s := validSite()
	s.MinRevisitWait = 200 * time.Second
	assert.Error(t, s.Validate())

	s = validSite()
	s.MaxRevisitWait = 50 * time.Second
	assert.Error(t, s.Validate())
}

func TestSiteValidatePolitenessOrdering(t *testing.T) {
	s := validSite()
	s.RequestWait = 60 * time.Second
	s.ErrorWait = 10 * time.Second
	assert.Error(t, s.Validate())
}
