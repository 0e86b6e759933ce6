package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/gosnmp/gosnmp"
)

// DiscoveredInterface holds the metadata for a single interface found via SNMP.
type DiscoveredInterface struct {
	IfIndex     int    `json:"if_index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Alias       string `json:"alias,omitempty"`
	Speed       uint64 `json:"speed_mbps"`
	Status      string `json:"status"`
}

// DiscoverInterfaces walks a device's interface table and returns every
// interface ordered by ifIndex.
func DiscoverInterfaces(conn Conn) ([]DiscoveredInterface, error) {
	byIndex, err := walkInterfaces(conn, true)
	if err != nil {
		return nil, err
	}
	result := make([]DiscoveredInterface, 0, len(byIndex))
	for _, iface := range byIndex {
		result = append(result, *iface)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IfIndex < result[j].IfIndex
	})
	return result, nil
}

// ResolveInterfaces maps interface names to their discovered metadata.
// Router configs reference interfaces by name (ifName, e.g.
// "GigabitEthernet0/0/1"), but counters are indexed by ifIndex, so each
// interface is also reachable by its ifDescr.
func ResolveInterfaces(conn Conn) (map[string]DiscoveredInterface, error) {
	byIndex, err := walkInterfaces(conn, false)
	if err != nil {
		return nil, err
	}
	result := make(map[string]DiscoveredInterface, 2*len(byIndex))
	for _, iface := range byIndex {
		if iface.Description != "" {
			result[iface.Description] = *iface
		}
	}
	// Names win over descriptions that happen to collide with them.
	for _, iface := range byIndex {
		result[iface.Name] = *iface
	}
	return result, nil
}

func walkInterfaces(conn Conn, full bool) (map[int]*DiscoveredInterface, error) {
	byIndex := make(map[int]*DiscoveredInterface)
	get := func(idx int) *DiscoveredInterface {
		iface, ok := byIndex[idx]
		if !ok {
			iface = &DiscoveredInterface{IfIndex: idx}
			byIndex[idx] = iface
		}
		return iface
	}

	if err := walkOID(conn, OIDifName, func(idx int, val string) {
		get(idx).Name = val
	}); err != nil {
		return nil, fmt.Errorf("walk ifName: %w", err)
	}
	if err := walkOID(conn, OIDifDescr, func(idx int, val string) {
		iface := get(idx)
		if iface.Name == "" {
			iface.Name = val
		}
		iface.Description = val
	}); err != nil {
		return nil, fmt.Errorf("walk ifDescr: %w", err)
	}
	// Optional columns: agents without IF-MIB extensions simply return nothing.
	_ = walkOID(conn, OIDifHighSpeed, func(idx int, val string) {
		if iface, ok := byIndex[idx]; ok {
			iface.Speed, _ = strconv.ParseUint(val, 10, 64)
		}
	})
	if !full {
		return byIndex, nil
	}
	_ = walkOID(conn, OIDifAlias, func(idx int, val string) {
		if iface, ok := byIndex[idx]; ok {
			iface.Alias = val
		}
	})
	_ = walkOID(conn, OIDifOperStatus, func(idx int, val string) {
		if iface, ok := byIndex[idx]; ok {
			v, _ := strconv.ParseInt(val, 10, 64)
			iface.Status = operStatusName(v)
		}
	})
	return byIndex, nil
}

// walkOID performs an SNMP BulkWalk on the given OID and calls handler for
// each PDU with the ifIndex taken from the last OID component.
func walkOID(conn Conn, oid string, handler func(int, string)) error {
	return conn.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
		_, idx, ok := splitIndex(pdu.Name)
		if !ok {
			return nil
		}
		var val string
		switch pdu.Type {
		case gosnmp.OctetString:
			b, _ := pdu.Value.([]byte)
			val = string(b)
		default:
			val = gosnmp.ToBigInt(pdu.Value).String()
		}
		handler(idx, val)
		return nil
	})
}
