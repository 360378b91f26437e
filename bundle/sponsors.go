package bundle

import "github.com/zeventbooks/eventgateway/eventmodel"

// sponsorFilter is a pure, idempotent predicate over a sponsor: given
// the same sponsor value it always returns the same answer, and
// applying it twice is the same as applying it once (§8 sponsor filter
// purity).
type sponsorFilter func(eventmodel.Sponsor) bool

func filterSponsors(sponsors []eventmodel.Sponsor, keep sponsorFilter) []eventmodel.Sponsor {
	out := make([]eventmodel.Sponsor, 0, len(sponsors))
	for _, s := range sponsors {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func publicSponsorFilter(s eventmodel.Sponsor) bool {
	return s.Placement == "public" || s.Placements.MobileBanner
}

func displaySponsorFilter(s eventmodel.Sponsor) bool {
	return s.Placement == "display" || s.Placements.TVTop || s.Placements.TVSide
}

func posterSponsorFilter(s eventmodel.Sponsor) bool {
	return s.Placement == "poster" || s.Placements.PosterTop
}
