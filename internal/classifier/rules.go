package classifier

// Rule maps a family of failure signatures to a canned remediation.
// Canonical phrases are exact, well-known markers (e.g. "oomkilled"); Triggers
// are looser substrings. Both are matched case-insensitively.
type Rule struct {
	Family    string   `yaml:"family"`
	Label     string   `yaml:"label"`
	Canonical []string `yaml:"canonical"`
	Triggers  []string `yaml:"triggers"`
	Causes    []string `yaml:"causes"`
	Fix       string   `yaml:"fix"`
}

// DefaultRules returns the built-in rule table in priority order
func DefaultRules() []Rule {
	return []Rule{
		{
			Family:    "memory",
			Label:     "Memory exhaustion (OOM)",
			Canonical: []string{"oomkilled", "out of memory"},
			Triggers:  []string{"memory exceeded", "memory usage exceeded", "memory limit", "oom", "killed"},
			Causes:    []string{"Memory limit exceeded", "Memory leak in application", "Insufficient container resources"},
			Fix:       "Increase memory limits in the deployment configuration or investigate memory leaks using profiling tools",
		},
		{
			Family:    "connectivity",
			Label:     "Connectivity failure",
			Canonical: []string{"econnrefused", "connection refused"},
			Triggers:  []string{"connection reset", "no route to host", "host unreachable", "dial tcp"},
			Causes:    []string{"Target service is down", "Network policy blocking connection", "Incorrect service endpoint"},
			Fix:       "Check that the target service is running and verify network policies allow the connection",
		},
		{
			Family:    "latency",
			Label:     "Latency / timeout",
			Canonical: []string{"deadline exceeded", "context deadline exceeded"},
			Triggers:  []string{"timeout", "timed out"},
			Causes:    []string{"Slow downstream service", "Network latency issues", "Resource contention"},
			Fix:       "Increase timeout values or investigate the performance of downstream services",
		},
		{
			Family:    "authorization",
			Label:     "Authorization failure",
			Canonical: []string{"permission denied", "access denied"},
			Triggers:  []string{"forbidden", "unauthorized", "403"},
			Causes:    []string{"Missing IAM permissions", "Incorrect service account", "RBAC misconfiguration"},
			Fix:       "Review and update IAM/RBAC permissions for the affected service",
		},
		{
			Family:    "storage",
			Label:     "Storage exhaustion",
			Canonical: []string{"no space left on device", "enospc"},
			Triggers:  []string{"no space", "disk", "storage"},
			Causes:    []string{"Disk space exhausted", "Log files growing unbounded", "Large temporary files"},
			Fix:       "Clean up old logs and temporary files, and consider increasing the storage allocation",
		},
		{
			Family:    "tls",
			Label:     "TLS certificate problem",
			Canonical: []string{"certificate has expired", "x509: certificate", "certificate verify failed"},
			Triggers:  []string{"certificate", "expired"},
			Causes:    []string{"Expired certificate", "Untrusted certificate authority", "Hostname mismatch"},
			Fix:       "Renew or rotate the certificate and verify the trust chain on both client and server",
		},
		{
			Family:    "throttling",
			Label:     "Rate limiting / throttling",
			Canonical: []string{"too many requests", "rate limit exceeded"},
			Triggers:  []string{"rate limit", "throttl", "429"},
			Causes:    []string{"Client exceeding API quota", "Retry storm", "Quota set too low for current load"},
			Fix:       "Add backoff to retries, reduce request concurrency, or request a higher quota",
		},
		{
			Family:    "crash",
			Label:     "Process crash",
			Canonical: []string{"segmentation fault", "segfault"},
			Triggers:  []string{"crash", "panic"},
			Causes:    []string{"Application bug", "Null pointer dereference", "Stack overflow"},
			Fix:       "Review recent code changes and check application logs for stack traces",
		},
	}
}
