package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Amkushu999/Proxych/internal/model"
)

// PrintResultsTable prints a human-readable table of per-proxy reports.
func PrintResultsTable(w io.Writer, reports []model.Report) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	// header
	fmt.Fprintln(tw, "PROXY\tSTATUS\tCONNECT(ms)\tHTTP\tHTTPS\tANONYMITY\tCOUNTRY\tISP")

	for _, r := range reports {
		connect := "-"
		if r.Connectivity.Succeeded {
			connect = strconv.FormatInt(r.Connectivity.ElapsedMs(), 10)
		}

		country, isp := "-", "-"
		if r.Geo != nil {
			country = dashIfEmpty(r.Geo.Country)
			isp = dashIfEmpty(r.Geo.ISP)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Proxy.HostPort(),
			string(r.Overall),
			connect,
			probeCell(r.HTTP),
			probeCell(r.HTTPS),
			string(r.Anonymity),
			country,
			isp,
		)
	}

	tw.Flush()
}

// probeCell renders one protocol outcome for the table: latency on
// success, the error kind on failure.
func probeCell(o model.ProbeOutcome) string {
	if o.Succeeded {
		return fmt.Sprintf("ok %dms", o.ElapsedMs())
	}
	if o.Kind == "" {
		return "-"
	}
	return string(o.Kind)
}

// PrintSummary prints the aggregated batch stats.
func PrintSummary(w io.Writer, stats model.BatchStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total proxies:        %d\n", stats.TotalProxies)
	fmt.Fprintf(w, "  Unique proxies:       %d\n", stats.UniqueProxies)
	fmt.Fprintf(w, "  Alive:                %d\n", stats.AliveProxies)
	fmt.Fprintf(w, "  Partially alive:      %d\n", stats.PartiallyAlive)
	fmt.Fprintf(w, "  Dead:                 %d\n", stats.DeadProxies)
	fmt.Fprintf(w, "  Success rate:         %.1f%%\n", stats.SuccessRatePct)
	fmt.Fprintf(w, "  Avg connect latency:  %.1f ms\n", stats.AvgConnectMs)
	if len(stats.Anonymity) > 0 {
		fmt.Fprintf(w, "  Anonymity:            ")
		first := true
		for _, level := range []string{"elite", "anonymous", "transparent"} {
			if n, ok := stats.Anonymity[level]; ok {
				if !first {
					fmt.Fprint(w, ", ")
				}
				fmt.Fprintf(w, "%s=%d", level, n)
				first = false
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  Total time:           %d ms\n", stats.TotalProcessingTimeMs)
}

// FormatReport renders one verification report as multi-line text, the
// way a chat or terminal front end would show it.
func FormatReport(r model.Report) string {
	var b strings.Builder

	switch r.Overall {
	case model.StatusAlive:
		fmt.Fprintf(&b, "Proxy %s is working (%s)\n", r.Proxy.HostPort(), strings.Join(r.WorkingSchemes(), ", "))
	case model.StatusPartiallyAlive:
		if schemes := r.WorkingSchemes(); len(schemes) > 0 {
			fmt.Fprintf(&b, "Proxy %s is partially working (%s)\n", r.Proxy.HostPort(), strings.Join(schemes, ", "))
		} else {
			fmt.Fprintf(&b, "Proxy %s is reachable but forwards no protocol\n", r.Proxy.HostPort())
		}
	default:
		fmt.Fprintf(&b, "Proxy %s is not working\n", r.Proxy.HostPort())
	}

	fmt.Fprintf(&b, "  connect: %s\n", outcomeLine(r.Connectivity))
	fmt.Fprintf(&b, "  http:    %s\n", outcomeLine(r.HTTP))
	fmt.Fprintf(&b, "  https:   %s\n", outcomeLine(r.HTTPS))
	if r.Socks5 != nil {
		fmt.Fprintf(&b, "  socks5:  %s\n", outcomeLine(*r.Socks5))
	}

	if r.Anonymity != model.AnonymityUnknown {
		fmt.Fprintf(&b, "  anonymity: %s\n", r.Anonymity)
	}
	if ip := exitIP(r); ip != "" {
		fmt.Fprintf(&b, "  exit ip: %s\n", ip)
	}
	if r.Geo != nil {
		loc := r.Geo.Country
		if r.Geo.City != "" {
			loc = r.Geo.City + ", " + loc
		}
		if r.Geo.ISP != "" {
			loc += " (" + r.Geo.ISP + ")"
		}
		fmt.Fprintf(&b, "  location: %s\n", loc)
	}

	return b.String()
}

func outcomeLine(o model.ProbeOutcome) string {
	if o.Succeeded {
		if o.StatusCode > 0 {
			return fmt.Sprintf("ok %d (%dms)", o.StatusCode, o.ElapsedMs())
		}
		return fmt.Sprintf("ok (%dms)", o.ElapsedMs())
	}
	if o.Detail != "" {
		return fmt.Sprintf("failed %s: %s", o.Kind, o.Detail)
	}
	return fmt.Sprintf("failed %s", o.Kind)
}

func exitIP(r model.Report) string {
	if r.HTTPS.Succeeded && r.HTTPS.ReportedIP != "" {
		return r.HTTPS.ReportedIP
	}
	if r.HTTP.Succeeded {
		return r.HTTP.ReportedIP
	}
	return ""
}

// WriteFile writes the batch results plus stats to path in the chosen
// format ("json" or "csv").
func WriteFile(path, format string, reports []model.Report, stats model.BatchStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	switch format {
	case "json":
		return writeJSON(f, reports, stats)
	case "csv":
		return writeCSV(f, reports)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, reports []model.Report, stats model.BatchStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Reports []model.Report   `json:"reports"`
		Stats   model.BatchStats `json:"stats"`
	}{Reports: reports, Stats: stats})
}

func writeCSV(w io.Writer, reports []model.Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{
		"host", "port", "overall_status", "connect_ms",
		"http", "http_error", "https", "https_error",
		"anonymity", "exit_ip", "country", "city", "isp",
	}); err != nil {
		return err
	}

	for _, r := range reports {
		country, city, isp := "", "", ""
		if r.Geo != nil {
			country, city, isp = r.Geo.Country, r.Geo.City, r.Geo.ISP
		}
		rec := []string{
			r.Proxy.Host,
			strconv.Itoa(r.Proxy.Port),
			string(r.Overall),
			strconv.FormatInt(r.Connectivity.ElapsedMs(), 10),
			strconv.FormatBool(r.HTTP.Succeeded),
			string(r.HTTP.Kind),
			strconv.FormatBool(r.HTTPS.Succeeded),
			string(r.HTTPS.Kind),
			string(r.Anonymity),
			exitIP(r),
			country,
			city,
			isp,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
