package controller

import (
	"fmt"
	"time"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Controller is one paired ecoNET device.
type Controller struct {
	UID        string     `json:"uid"`
	Name       string     `json:"name"`
	Host       string     `json:"host"`
	Port       int        `json:"port"`
	ParamCount int        `json:"param_count"`
	PairedAt   time.Time  `json:"paired_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// Validate checks the fields required to persist a controller.
func (c *Controller) Validate() error {
	switch {
	case c.UID == "" || c.UID == econext.UnknownUID:
		return fmt.Errorf("%w: uid is required", ErrInvalidController)
	case c.Host == "":
		return fmt.Errorf("%w: host is required", ErrInvalidController)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidController, c.Port)
	}
	return nil
}

// Clone returns a copy that shares no pointers with c.
func (c *Controller) Clone() *Controller {
	out := *c
	if c.LastSeenAt != nil {
		t := *c.LastSeenAt
		out.LastSeenAt = &t
	}
	return &out
}
