package schedule

import (
	"errors"
	"fmt"
)

const (
	DefaultFirstSlot   = TimeOfDay(10 * 60)
	DefaultSlotMinutes = 30
	DefaultSlotCount   = 18
)

// Catalog is the fixed daily set of bookable hospital slots. It is shared by every doctor and date.
type Catalog struct {
	slots []TimeOfDay
	set   TimeSet
}

// NewCatalog builds count slots of slotMinutes each, starting at first. All slots must start
// on the same day.
func NewCatalog(first TimeOfDay, slotMinutes, count int) (*Catalog, error) {
	if slotMinutes <= 0 || count <= 0 {
		return nil, errors.New("slot length and count must be positive")
	}
	last := int(first) + (count-1)*slotMinutes
	if !first.Valid() || last >= minutesPerDay {
		return nil, fmt.Errorf("slots starting at %s do not fit in one day", first)
	}

	slots := make([]TimeOfDay, count)
	for i := range slots {
		slots[i] = first + TimeOfDay(i*slotMinutes)
	}
	return &Catalog{slots: slots, set: NewTimeSet(slots...)}, nil
}

// DefaultCatalog is every half hour from 10:00, 18 slots a day.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(DefaultFirstSlot, DefaultSlotMinutes, DefaultSlotCount)
	return c
}

// Slots returns the slot templates for the service type. Hotel stays are booked as date
// ranges and have no slots.
func (c *Catalog) Slots(st ServiceType) []TimeOfDay {
	if st != ServiceHospital {
		return nil
	}
	out := make([]TimeOfDay, len(c.slots))
	copy(out, c.slots)
	return out
}

// Set returns a fresh copy of the hospital slots as a set.
func (c *Catalog) Set() TimeSet {
	return c.set.Clone()
}

func (c *Catalog) Contains(t TimeOfDay) bool {
	return c.set.Has(t)
}

// ValidStay is the only structural rule for hotel bookings.
func ValidStay(checkIn, checkOut Date) bool {
	return !checkIn.IsZero() && checkOut.After(checkIn)
}
