// Package center manages the registered centers students attend and the
// geofence attached to each one.
package center

import "time"

// Center is a physical location students check in at. The geofence fields are
// nullable: a center created without coordinates cannot admit self-service
// check-ins until an admin sets its location.
type Center struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Lat       *float64   `json:"lat,omitempty"`
	Lng       *float64   `json:"lng,omitempty"`
	RadiusM   *float64   `json:"radius_m,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Geofence returns the admission boundary when fully configured.
func (c *Center) Geofence() (lat, lng, radiusM float64, ok bool) {
	if c.Lat == nil || c.Lng == nil || c.RadiusM == nil || *c.RadiusM <= 0 {
		return 0, 0, 0, false
	}
	return *c.Lat, *c.Lng, *c.RadiusM, true
}
