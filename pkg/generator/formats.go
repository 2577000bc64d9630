package generator

import (
	"fmt"
	"math/rand"
	"time"
)

var (
	apacheMethods  = []string{"GET", "POST", "PUT", "DELETE"}
	apachePaths    = []string{"/", "/login", "/api/v1/users", "/assets/app.js", "/health"}
	apacheStatuses = []int{200, 201, 301, 404, 500, 503}
	apacheHosts    = []string{"10.0.0.1", "172.16.0.23", "203.0.113.5"}
	syslogApps     = []string{"su", "sshd", "cron", "kernel"}
	syslogHosts    = []string{"web-01", "db-02", "cache-03"}
)

// generateLine produces the line for tick n according to f. Shuffle is
// the only variant that depends on n directly; the rest synthesize a
// fresh plausible record regardless of tick number, matching
// original_source's format.generate_line dispatch.
func generateLine(f OutputFormat, n int, rng *rand.Rand) string {
	switch f.Format {
	case FormatShuffle:
		return shuffleGenerate(f.Sequence, f.Lines, n, rng)
	case FormatApacheCommon:
		return apacheCommonLogLine(rng)
	case FormatApacheError:
		return apacheErrorLogLine(rng)
	case FormatSyslog:
		return syslog5424LogLine(rng)
	case FormatBsdSyslog:
		return syslog3164LogLine(rng)
	case FormatJSON:
		return jsonLogLine(rng)
	default:
		return jsonLogLine(rng)
	}
}

// shuffleGenerate picks a uniformly random line and optionally
// prepends the zero-based tick number (spec.md §4.1). Callers must
// have already validated that lines is non-empty.
func shuffleGenerate(sequence bool, lines []string, n int, rng *rand.Rand) string {
	line := lines[rng.Intn(len(lines))]
	if sequence {
		return fmt.Sprintf("%d %s", n, line)
	}
	return line
}

func apacheCommonLogLine(rng *rand.Rand) string {
	method := apacheMethods[rng.Intn(len(apacheMethods))]
	path := apachePaths[rng.Intn(len(apachePaths))]
	status := apacheStatuses[rng.Intn(len(apacheStatuses))]
	host := apacheHosts[rng.Intn(len(apacheHosts))]
	size := rng.Intn(10000)
	ts := time.Now().Format("02/Jan/2006:15:04:05 -0700")
	return fmt.Sprintf(`%s - - [%s] "%s %s HTTP/1.1" %d %d`, host, ts, method, path, status, size)
}

func apacheErrorLogLine(rng *rand.Rand) string {
	path := apachePaths[rng.Intn(len(apachePaths))]
	ts := time.Now().Format("Mon Jan 02 15:04:05 2006")
	return fmt.Sprintf("[%s] [error] [client %s] File does not exist: %s", ts, apacheHosts[rng.Intn(len(apacheHosts))], path)
}

// syslog5424LogLine synthesizes an RFC 5424 structured syslog line.
func syslog5424LogLine(rng *rand.Rand) string {
	host := syslogHosts[rng.Intn(len(syslogHosts))]
	app := syslogApps[rng.Intn(len(syslogApps))]
	pid := rng.Intn(65535)
	ts := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf("<34>1 %s %s %s %d - - generated message %d", ts, host, app, pid, rng.Intn(1000))
}

// syslog3164LogLine synthesizes an RFC 3164 ("BSD") syslog line.
func syslog3164LogLine(rng *rand.Rand) string {
	host := syslogHosts[rng.Intn(len(syslogHosts))]
	app := syslogApps[rng.Intn(len(syslogApps))]
	pid := rng.Intn(65535)
	ts := time.Now().Format("Jan _2 15:04:05")
	return fmt.Sprintf("<34>%s %s %s[%d]: generated message %d", ts, host, app, pid, rng.Intn(1000))
}

func jsonLogLine(rng *rand.Rand) string {
	return fmt.Sprintf(`{"timestamp":%q,"level":"info","message":"generated message %d"}`,
		time.Now().UTC().Format(time.RFC3339Nano), rng.Intn(1000))
}
