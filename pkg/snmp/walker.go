// Package snmp discovers repeater details over SNMP after a successful
// registration. Discovery is best effort; the bridge works without it.
package snmp

import (
	"context"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// Standard MIB-II system OIDs served by the repeater's SNMP agent
const (
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysContact  = ".1.3.6.1.2.1.1.4.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"
	oidSysLocation = ".1.3.6.1.2.1.1.6.0"
)

// Walker queries a repeater's system OIDs and fills the session fields it
// can resolve
type Walker struct {
	cfg     config.SNMPConfig
	log     *logger.Logger
	session *bridge.Session
}

// NewWalker creates an SNMP walker writing results into session
func NewWalker(cfg config.SNMPConfig, session *bridge.Session, log *logger.Logger) *Walker {
	return &Walker{
		cfg:     cfg,
		log:     log.WithComponent("snmp"),
		session: session,
	}
}

// Walk queries host for the system OIDs over SNMP v2c. Partial results are
// recorded; an unreachable agent returns an error for the caller to log.
func (w *Walker) Walk(ctx context.Context, host string) error {
	timeout := time.Duration(w.cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    host,
		Port:      uint16(w.cfg.Port),
		Community: w.cfg.Community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   1,
	}
	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to SNMP agent: %w", err)
	}
	defer func() { _ = client.Conn.Close() }()

	result, err := client.Get([]string{oidSysDescr, oidSysContact, oidSysName, oidSysLocation})
	if err != nil {
		return fmt.Errorf("failed to query system OIDs: %w", err)
	}

	var name, location, descr, contact string
	for _, v := range result.Variables {
		value := octetString(v)
		if value == "" {
			continue
		}
		switch v.Name {
		case oidSysName:
			name = value
		case oidSysLocation:
			location = value
		case oidSysDescr:
			descr = value
		case oidSysContact:
			contact = value
		}
	}

	w.session.SetSNMPInfo(name, location)
	w.log.Info("SNMP discovery finished",
		logger.String("host", host),
		logger.String("name", name),
		logger.String("location", location),
		logger.String("descr", descr),
		logger.String("contact", contact))
	return nil
}

func octetString(v gosnmp.SnmpPDU) string {
	if v.Type != gosnmp.OctetString {
		return ""
	}
	b, ok := v.Value.([]byte)
	if !ok {
		return ""
	}
	return string(b)
}
