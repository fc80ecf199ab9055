package models

import (
	"fmt"
	"strings"
)

const zoneIDSeparator = "/"

// ZoneAndID is the composite identifier of a zonal resource
type ZoneAndID struct {
	Zone string
	ID   string
}

// SlashEncode renders the identifier as "zone/id"
func (z ZoneAndID) SlashEncode() string {
	return z.Zone + zoneIDSeparator + z.ID
}

func (z ZoneAndID) String() string {
	return z.SlashEncode()
}

// FromSlashEncoded parses a "zone/id" token produced by SlashEncode
func FromSlashEncoded(token string) (ZoneAndID, error) {
	zone, id, ok := strings.Cut(token, zoneIDSeparator)
	if !ok {
		return ZoneAndID{}, fmt.Errorf("invalid node id %q: expected zone%sname", token, zoneIDSeparator)
	}
	return ZoneAndID{Zone: zone, ID: id}, nil
}
