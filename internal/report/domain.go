package report

import (
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
)

// Domain is one category of host facts. The numeric value is the report ID
// offered by the interactive prompt.
type Domain int

const (
	DomainCPU Domain = iota + 1
	DomainProcess
	DomainMemory
	DomainDisk
	DomainNetwork
	DomainSystem
	DomainBattery
)

var domainNames = map[Domain]string{
	DomainCPU:     "cpu",
	DomainProcess: "process",
	DomainMemory:  "memory",
	DomainDisk:    "disk",
	DomainNetwork: "network",
	DomainSystem:  "system",
	DomainBattery: "battery",
}

var domainTitles = map[Domain]string{
	DomainCPU:     "CPU Usage Statistics",
	DomainProcess: "System Processes Statistics",
	DomainMemory:  "Memory Usage Statistics",
	DomainDisk:    "Disk Statistics",
	DomainNetwork: "Network Usage Statistics",
	DomainSystem:  "System Info Statistics",
	DomainBattery: "Battery Usage Statistics",
}

// Domains returns every domain in collection order.
func Domains() []Domain {
	return []Domain{
		DomainCPU,
		DomainProcess,
		DomainMemory,
		DomainDisk,
		DomainNetwork,
		DomainSystem,
		DomainBattery,
	}
}

func (d Domain) Valid() bool {
	_, ok := domainNames[d]
	return ok
}

func (d Domain) String() string {
	if name, ok := domainNames[d]; ok {
		return name
	}
	return "domain(" + strconv.Itoa(int(d)) + ")"
}

// Title is the top-level section key the domain's collector produces.
func (d Domain) Title() string {
	return domainTitles[d]
}

// ParseDomain accepts a report ID ("1".."7") or a domain name.
func ParseDomain(s string) (Domain, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if id, err := strconv.Atoi(s); err == nil {
		if d := Domain(id); d.Valid() {
			return d, nil
		}
		return 0, errors.New().WithData(errors.ErrUnknownDomain, s)
	}

	switch s {
	case "identity", "system_identity", "systemidentity", "sysinfo":
		return DomainSystem, nil
	case "processes":
		return DomainProcess, nil
	}

	for d, name := range domainNames {
		if name == s {
			return d, nil
		}
	}

	return 0, errors.New().WithData(errors.ErrUnknownDomain, s)
}

// Selection names the domains one collection request covers.
type Selection struct {
	all    bool
	domain Domain
}

// AllDomains selects every domain.
func AllDomains() Selection {
	return Selection{all: true}
}

// Single selects exactly one domain.
func Single(d Domain) Selection {
	return Selection{domain: d}
}

func (s Selection) All() bool {
	return s.all
}

// Domain returns the selected domain of a single selection.
func (s Selection) Domain() Domain {
	return s.domain
}

// Domains returns the selected domains in collection order.
func (s Selection) Domains() []Domain {
	if s.all {
		return Domains()
	}
	return []Domain{s.domain}
}

func (s Selection) String() string {
	if s.all {
		return "all"
	}
	return s.domain.String()
}
