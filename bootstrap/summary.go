package bootstrap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cataloghq/idkit/auth/oauth"
	"github.com/cataloghq/idkit/logger"
)

// Summary is the one-look startup report: which subsystems are wired
// and with what headline settings.
type Summary struct {
	serviceName string
	version     string
	lines       []string
}

// NewSummary collects the subsystem descriptions from the validated
// configuration.
func NewSummary(cfg *Config, broker *oauth.Broker) *Summary {
	s := &Summary{serviceName: cfg.Name, version: cfg.Version}

	s.track("auth", cfg.Auth.Describe())
	s.track("sessions", fmt.Sprintf("cap=%d timeout=%s",
		cfg.Sessions.MaxConcurrentSessions, cfg.Sessions.SessionTimeout))
	s.track("encryption", cfg.Encryption.Algorithm)
	if broker != nil {
		names := broker.Providers()
		sort.Strings(names)
		s.track("oauth", strings.Join(names, ", "))
	} else {
		s.track("oauth", "disabled")
	}
	if cfg.Tracing != nil {
		s.track("tracing", cfg.Tracing.Endpoint)
	} else {
		s.track("tracing", "disabled")
	}
	return s
}

func (s *Summary) track(name, detail string) {
	s.lines = append(s.lines, name+": "+detail)
}

// Display logs the assembled summary.
func (s *Summary) Display(log *logger.Logger) {
	log.Info(fmt.Sprintf("%s %s assembled", s.serviceName, s.version))
	for _, line := range s.lines {
		log.Info("  " + line)
	}
}
