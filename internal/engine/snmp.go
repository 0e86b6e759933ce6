package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/rhyred/routerdash/internal/identity"
)

// IF-MIB OIDs used for interface discovery and counter polling.
const (
	OIDifName        = "1.3.6.1.2.1.31.1.1.1.1"
	OIDifDescr       = "1.3.6.1.2.1.2.2.1.2"
	OIDifAlias       = "1.3.6.1.2.1.31.1.1.1.18"
	OIDifHCInOctets  = "1.3.6.1.2.1.31.1.1.1.6"
	OIDifHCOutOctets = "1.3.6.1.2.1.31.1.1.1.10"
	OIDifHighSpeed   = "1.3.6.1.2.1.31.1.1.1.15"
	OIDifOperStatus  = "1.3.6.1.2.1.2.2.1.8"
)

// maxOIDsPerGet keeps GET requests under the PDU size most agents accept.
const maxOIDsPerGet = gosnmp.MaxOids

// Conn is the subset of *gosnmp.GoSNMP the engine uses.
type Conn interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	BulkWalk(rootOid string, walkFn gosnmp.WalkFunc) error
}

// NewSNMPClient creates a gosnmp.GoSNMP client configured from an Identity.
// The client is not connected.
func NewSNMPClient(host string, port int, id *identity.Identity, timeout time.Duration) (*gosnmp.GoSNMP, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if port == 0 {
		port = 161
	}
	client := &gosnmp.GoSNMP{
		Target:         host,
		Port:           uint16(port),
		Timeout:        timeout,
		Retries:        2,
		MaxRepetitions: 25,
	}

	switch id.Version {
	case identity.V1:
		client.Version = gosnmp.Version1
		client.Community = id.Community
	case identity.V2c:
		client.Version = gosnmp.Version2c
		client.Community = id.Community
	case identity.V3:
		client.Version = gosnmp.Version3
		client.SecurityModel = gosnmp.UserSecurityModel
		client.MsgFlags = snmpv3MsgFlags(id)
		client.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 id.Username,
			AuthenticationProtocol:   snmpv3AuthProto(id.AuthProto),
			AuthenticationPassphrase: id.AuthPass,
			PrivacyProtocol:          snmpv3PrivProto(id.PrivProto),
			PrivacyPassphrase:        id.PrivPass,
		}
	}
	return client, nil
}

// Session is a connected SNMP client.
type Session struct {
	*gosnmp.GoSNMP
}

// Dial creates an SNMP client for host and connects it.
func Dial(host string, port int, id *identity.Identity, timeout time.Duration) (*Session, error) {
	client, err := NewSNMPClient(host, port, id, timeout)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", host, err)
	}
	return &Session{GoSNMP: client}, nil
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	if s.GoSNMP == nil || s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

func snmpv3MsgFlags(id *identity.Identity) gosnmp.SnmpV3MsgFlags {
	if id.PrivProto != "" && id.PrivPass != "" {
		return gosnmp.AuthPriv
	}
	if id.AuthProto != "" && id.AuthPass != "" {
		return gosnmp.AuthNoPriv
	}
	return gosnmp.NoAuthNoPriv
}

func snmpv3AuthProto(proto string) gosnmp.SnmpV3AuthProtocol {
	switch proto {
	case "MD5":
		return gosnmp.MD5
	case "SHA":
		return gosnmp.SHA
	case "SHA256":
		return gosnmp.SHA256
	case "SHA512":
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

func snmpv3PrivProto(proto string) gosnmp.SnmpV3PrivProtocol {
	switch proto {
	case "DES":
		return gosnmp.DES
	case "AES", "AES128":
		return gosnmp.AES
	case "AES192":
		return gosnmp.AES192
	case "AES256":
		return gosnmp.AES256
	default:
		return gosnmp.NoPriv
	}
}

// ifaceCounters is one interface's HC octet counters and oper status.
type ifaceCounters struct {
	in, out         uint64
	haveIn, haveOut bool
	status          string
}

// fetchCounters reads ifHCInOctets, ifHCOutOctets and ifOperStatus for every
// ifIndex, splitting the request into GETs of at most maxOIDsPerGet OIDs.
func fetchCounters(conn Conn, ifIndexes []int) (map[int]*ifaceCounters, error) {
	oids := make([]string, 0, 3*len(ifIndexes))
	for _, idx := range ifIndexes {
		oids = append(oids,
			fmt.Sprintf("%s.%d", OIDifHCInOctets, idx),
			fmt.Sprintf("%s.%d", OIDifHCOutOctets, idx),
			fmt.Sprintf("%s.%d", OIDifOperStatus, idx))
	}

	result := make(map[int]*ifaceCounters, len(ifIndexes))
	for start := 0; start < len(oids); start += maxOIDsPerGet {
		end := start + maxOIDsPerGet
		if end > len(oids) {
			end = len(oids)
		}
		pkt, err := conn.Get(oids[start:end])
		if err != nil {
			return nil, err
		}
		for _, v := range pkt.Variables {
			if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance {
				continue
			}
			base, idx, ok := splitIndex(v.Name)
			if !ok {
				continue
			}
			c, ok := result[idx]
			if !ok {
				c = &ifaceCounters{}
				result[idx] = c
			}
			val := gosnmp.ToBigInt(v.Value)
			switch base {
			case OIDifHCInOctets:
				c.in, c.haveIn = val.Uint64(), true
			case OIDifHCOutOctets:
				c.out, c.haveOut = val.Uint64(), true
			case OIDifOperStatus:
				c.status = operStatusName(val.Int64())
			}
		}
	}
	return result, nil
}

// splitIndex splits "<base>.<ifIndex>" into its base OID and the ifIndex.
// A leading dot, as returned by gosnmp, is ignored.
func splitIndex(name string) (string, int, bool) {
	name = strings.TrimPrefix(name, ".")
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(name[dot+1:])
	if err != nil {
		return "", 0, false
	}
	return name[:dot], idx, true
}

// operStatusName maps ifOperStatus values to display names.
func operStatusName(v int64) string {
	switch v {
	case 1:
		return "up"
	case 2:
		return "down"
	case 3:
		return "testing"
	default:
		return "unknown"
	}
}
