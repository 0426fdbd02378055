package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFacts is returned by Ingest when facts fail validation.
var ErrInvalidFacts = errors.New("invalid host facts")

// Facts is the typed hardware inventory of one host as reported by the fact
// source.
type Facts struct {
	ProcessorCount    int `json:"processor_count" validate:"gte=1"`
	ThreadsPerCore    int `json:"threads_per_core" validate:"gte=1"`
	CoresPerProcessor int `json:"cores_per_processor" validate:"gte=1"`
	MemoryMB          int `json:"memory_mb" validate:"gte=1"`

	Devices    map[string]BlockDevice `json:"devices" validate:"required,dive,keys,required,endkeys"`
	Interfaces []Interface            `json:"interfaces" validate:"dive"`
}

// BlockDevice is one entry of the block-device inventory.
type BlockDevice struct {
	Rotational bool     `json:"rotational"`
	Partitions []string `json:"partitions,omitempty"`
	// Holders are device-mapper/LVM consumers of the device.
	Holders []string `json:"holders,omitempty"`
	// Masters are software RAID arrays the device is a member of.
	Masters    []string `json:"masters,omitempty"`
	Sectors    uint64   `json:"sectors"`
	SectorSize uint64   `json:"sector_size"`
}

// SizeBytes returns the raw capacity.
func (d BlockDevice) SizeBytes() uint64 { return d.Sectors * d.SectorSize }

// Interface is one network interface.
type Interface struct {
	Name   string `json:"name" validate:"required"`
	Driver string `json:"driver,omitempty"`
	Active bool   `json:"active"`
	IPv4   *IPv4  `json:"ipv4,omitempty"`
}

// IPv4 is the primary IPv4 configuration of an interface.
type IPv4 struct {
	Address string `json:"address,omitempty" validate:"omitempty,ipv4"`
	Network string `json:"network" validate:"required,ipv4"`
	Netmask string `json:"netmask" validate:"required,ipv4"`
}

var factsValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks facts for the fields the rules depend on.
func (f *Facts) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: no facts", ErrInvalidFacts)
	}
	if err := factsValidator.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidFacts, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidFacts, err)
	}
	return nil
}
