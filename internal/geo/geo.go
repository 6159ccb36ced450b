// Package geo provides IPResolver implementations for enriching
// verification reports with location and provider data: a local MaxMind
// database reader, an ip-api.com client, and a chain that tries
// resolvers in order.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/multierr"

	"github.com/Amkushu999/Proxych/internal/model"
)

// MMDB resolves IPs against local MaxMind databases. The city database
// supplies country and city; the ASN database, when configured,
// supplies the provider name. Either path may be empty.
type MMDB struct {
	city *geoip2.Reader
	asn  *geoip2.Reader
}

// OpenMMDB opens the configured database files. At least one path must
// be given.
func OpenMMDB(cityPath, asnPath string) (*MMDB, error) {
	if cityPath == "" && asnPath == "" {
		return nil, errors.New("geo: no mmdb path configured")
	}

	m := &MMDB{}
	if cityPath != "" {
		r, err := geoip2.Open(cityPath)
		if err != nil {
			return nil, fmt.Errorf("open city mmdb: %w", err)
		}
		m.city = r
	}
	if asnPath != "" {
		r, err := geoip2.Open(asnPath)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("open asn mmdb: %w", err)
		}
		m.asn = r
	}
	return m, nil
}

func (m *MMDB) Lookup(ip string) (model.GeoInfo, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return model.GeoInfo{}, fmt.Errorf("geo: %q is not an IP address", ip)
	}

	var info model.GeoInfo
	if m.city != nil {
		rec, err := m.city.City(parsed)
		if err != nil {
			return model.GeoInfo{}, fmt.Errorf("city lookup: %w", err)
		}
		info.Country = rec.Country.Names["en"]
		info.City = rec.City.Names["en"]
	}
	if m.asn != nil {
		rec, err := m.asn.ASN(parsed)
		if err != nil {
			return model.GeoInfo{}, fmt.Errorf("asn lookup: %w", err)
		}
		info.ISP = rec.AutonomousSystemOrganization
	}
	return info, nil
}

// Close releases both readers; the errors, if any, are folded together.
func (m *MMDB) Close() error {
	var err error
	if m.city != nil {
		err = multierr.Append(err, m.city.Close())
	}
	if m.asn != nil {
		err = multierr.Append(err, m.asn.Close())
	}
	return err
}

// DefaultIPAPIBaseURL is the free ip-api.com JSON endpoint.
const DefaultIPAPIBaseURL = "http://ip-api.com/json"

// IPAPI resolves IPs through ip-api.com (or a compatible service).
type IPAPI struct {
	BaseURL string
	Client  *http.Client
}

func NewIPAPI() *IPAPI {
	return &IPAPI{
		BaseURL: DefaultIPAPIBaseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type ipapiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
}

func (a *IPAPI) Lookup(ip string) (model.GeoInfo, error) {
	resp, err := a.Client.Get(a.BaseURL + "/" + ip)
	if err != nil {
		return model.GeoInfo{}, fmt.Errorf("ip-api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GeoInfo{}, fmt.Errorf("ip-api status %s", resp.Status)
	}

	var parsed ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.GeoInfo{}, fmt.Errorf("ip-api decode: %w", err)
	}
	if parsed.Status != "success" {
		return model.GeoInfo{}, fmt.Errorf("ip-api lookup failed: %s", parsed.Message)
	}

	return model.GeoInfo{
		Country: parsed.Country,
		City:    parsed.City,
		ISP:     parsed.ISP,
	}, nil
}

// Chain tries each resolver in order and returns the first hit. When
// all fail, the individual errors are folded into one.
type Chain []model.IPResolver

func (c Chain) Lookup(ip string) (model.GeoInfo, error) {
	var errs error
	for _, r := range c {
		info, err := r.Lookup(ip)
		if err == nil {
			return info, nil
		}
		errs = multierr.Append(errs, err)
	}
	if errs == nil {
		errs = errors.New("geo: empty resolver chain")
	}
	return model.GeoInfo{}, errs
}
