package cfdf

import (
	"crypto/sha256"
	"fmt"
)

// Leg is a single origin to destination flight segment to be checked for
// availability. Legs are interned by hash so the same airport pair is never
// checked twice within a run.
type Leg struct {
	Origin      string `groups:"basic"`
	Destination string `groups:"basic"`

	OriginCity      string `groups:"basic"`
	DestinationCity string `groups:"basic"`
}

func NewLeg(origin Airport, destination Airport) Leg {
	return Leg{
		Origin:      origin.Code,
		Destination: destination.Code,

		OriginCity:      origin.Name,
		DestinationCity: destination.Name,
	}
}

func (leg *Leg) Hash() string {
	hash := sha256.New()

	hash.Write([]byte(fmt.Sprintf("%s-%s", leg.Origin, leg.Destination)))

	return fmt.Sprintf("%x", hash.Sum(nil))
}

func (leg *Leg) String() string {
	return fmt.Sprintf("%s-%s", leg.Origin, leg.Destination)
}
