package facts

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/imamik/cephprobe/internal/inventory"
)

// ErrMalformed is wrapped by every DecodeError.
var ErrMalformed = errors.New("malformed facts")

// DecodeError reports a missing or malformed fact field.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformed, e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrMalformed }

func missing(field string) error { return &DecodeError{Field: field, Reason: "missing"} }

func invalid(field string, v any) error {
	return &DecodeError{Field: field, Reason: fmt.Sprintf("unexpected value %v", v)}
}

// Decode parses a fact document.
func Decode(data []byte) (*inventory.Facts, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Field: "document", Reason: err.Error()}
	}
	if wrapped, ok := doc["ansible_facts"]; ok {
		inner, ok := wrapped.(map[string]any)
		if !ok {
			return nil, invalid("ansible_facts", wrapped)
		}
		doc = inner
	}
	return decodeFacts(doc)
}

func decodeFacts(doc map[string]any) (*inventory.Facts, error) {
	f := &inventory.Facts{}
	var err error

	if f.ProcessorCount, err = intField(doc, "ansible_processor_count"); err != nil {
		return nil, err
	}
	if f.ThreadsPerCore, err = intField(doc, "ansible_processor_threads_per_core"); err != nil {
		return nil, err
	}
	if f.CoresPerProcessor, err = intField(doc, "ansible_processor_cores"); err != nil {
		return nil, err
	}

	mem, err := path(doc, "ansible_memory_mb", "real", "total")
	if err != nil {
		return nil, err
	}
	if f.MemoryMB, err = toInt("ansible_memory_mb.real.total", mem); err != nil {
		return nil, err
	}

	if f.Devices, err = decodeDevices(doc); err != nil {
		return nil, err
	}
	if f.Interfaces, err = decodeInterfaces(doc); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeDevices(doc map[string]any) (map[string]inventory.BlockDevice, error) {
	raw, ok := doc["ansible_devices"]
	if !ok {
		return nil, missing("ansible_devices")
	}
	devices, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid("ansible_devices", raw)
	}

	out := make(map[string]inventory.BlockDevice, len(devices))
	for id, v := range devices {
		field := "ansible_devices." + id
		dev, ok := v.(map[string]any)
		if !ok {
			return nil, invalid(field, v)
		}

		var bd inventory.BlockDevice
		var err error
		rot, ok := dev["rotational"]
		if !ok {
			return nil, missing(field + ".rotational")
		}
		if bd.Rotational, err = toBool(field+".rotational", rot); err != nil {
			return nil, err
		}
		if bd.Partitions, err = names(field+".partitions", dev["partitions"]); err != nil {
			return nil, err
		}
		if bd.Holders, err = names(field+".holders", dev["holders"]); err != nil {
			return nil, err
		}
		if links, ok := dev["links"].(map[string]any); ok {
			if bd.Masters, err = names(field+".links.masters", links["masters"]); err != nil {
				return nil, err
			}
		}
		sectors, err := intField(dev, "sectors")
		if err != nil {
			return nil, prefixed(field, err)
		}
		size, err := intField(dev, "sectorsize")
		if err != nil {
			return nil, prefixed(field, err)
		}
		if sectors < 0 || size < 0 {
			return nil, invalid(field+".sectors", sectors)
		}
		bd.Sectors, bd.SectorSize = uint64(sectors), uint64(size)
		out[id] = bd
	}
	return out, nil
}

func decodeInterfaces(doc map[string]any) ([]inventory.Interface, error) {
	raw, ok := doc["ansible_interfaces"]
	if !ok {
		return nil, missing("ansible_interfaces")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, invalid("ansible_interfaces", raw)
	}

	out := make([]inventory.Interface, 0, len(list))
	for _, v := range list {
		name, ok := v.(string)
		if !ok || name == "" {
			return nil, invalid("ansible_interfaces", v)
		}
		key := InterfaceKey(name)
		detail, ok := doc[key].(map[string]any)
		if !ok {
			return nil, missing(key)
		}

		iface := inventory.Interface{Name: name}
		iface.Driver, _ = detail["module"].(string)
		if active, ok := detail["active"]; ok {
			b, err := toBool(key+".active", active)
			if err != nil {
				return nil, err
			}
			iface.Active = b
		}
		if ipv4, ok := detail["ipv4"].(map[string]any); ok {
			network, _ := ipv4["network"].(string)
			netmask, _ := ipv4["netmask"].(string)
			if network == "" || netmask == "" {
				return nil, missing(key + ".ipv4.network/netmask")
			}
			address, _ := ipv4["address"].(string)
			iface.IPv4 = &inventory.IPv4{Address: address, Network: network, Netmask: netmask}
		}
		out = append(out, iface)
	}
	return out, nil
}

// InterfaceKey returns the fact key holding an interface's details. The
// setup module replaces dashes and colons with underscores.
func InterfaceKey(name string) string {
	return "ansible_" + strings.NewReplacer("-", "_", ":", "_").Replace(name)
}

func path(doc map[string]any, keys ...string) (any, error) {
	var cur any = doc
	for i, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, invalid(strings.Join(keys[:i], "."), cur)
		}
		if cur, ok = m[k]; !ok {
			return nil, missing(strings.Join(keys[:i+1], "."))
		}
	}
	return cur, nil
}

func intField(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, missing(key)
	}
	return toInt(key, v)
}

func toInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, invalid(field, v)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, invalid(field, v)
		}
		return i, nil
	}
	return 0, invalid(field, v)
}

func toBool(field string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no":
			return false, nil
		}
	}
	return false, invalid(field, v)
}

// names accepts a list of strings or a mapping keyed by name (partitions are
// reported as a mapping). Absent means empty.
func names(field string, v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(field, item)
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]any:
		out := make([]string, 0, len(t))
		for k := range t {
			out = append(out, k)
		}
		slices.Sort(out)
		return out, nil
	}
	return nil, invalid(field, v)
}

func prefixed(prefix string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Field: prefix + "." + de.Field, Reason: de.Reason}
	}
	return err
}
