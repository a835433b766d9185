package cfdf

import (
	"fmt"
)

type TripType string

const (
	TripTypeDirect    TripType = "direct"
	TripTypeOneStop   TripType = "onestop"
	TripTypeRoundTrip TripType = "roundtrip"
)

// CandidateItinerary is an enumerated, not yet verified combination of one
// or two legs forming a trip. The trip type is an explicit discriminant;
// it is never inferred from which legs are set.
//
// For TripTypeOneStop the second leg is the connection, for
// TripTypeRoundTrip it is the return. Direct candidates carry no second leg.
type CandidateItinerary struct {
	TripType TripType `groups:"basic"`

	First  *Leg `groups:"basic"`
	Second *Leg `groups:"basic"`
}

func (itinerary *CandidateItinerary) Legs() []*Leg {
	legs := []*Leg{itinerary.First}
	if itinerary.Second != nil {
		legs = append(legs, itinerary.Second)
	}

	return legs
}

// Validate checks the structural invariants of the candidate. Two leg
// candidates must join at a single airport, the destination of the first
// leg being the origin of the second.
func (itinerary *CandidateItinerary) Validate() error {
	if itinerary.First == nil {
		return fmt.Errorf("candidate itinerary has no first leg")
	}

	switch itinerary.TripType {
	case TripTypeDirect:
		if itinerary.Second != nil {
			return fmt.Errorf("direct candidate %s carries a second leg", itinerary.First.String())
		}
	case TripTypeOneStop, TripTypeRoundTrip:
		if itinerary.Second == nil {
			return nil // single direction round trips are retained
		}
		if itinerary.First.Destination != itinerary.Second.Origin {
			return fmt.Errorf("candidate legs %s and %s do not join", itinerary.First.String(), itinerary.Second.String())
		}
	default:
		return fmt.Errorf("unknown trip type %s", itinerary.TripType)
	}

	return nil
}
