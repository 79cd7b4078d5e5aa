package geohash

type interval struct {
	lo, hi float64
}

func (iv interval) mid() float64 { return (iv.lo + iv.hi) / 2 }

func (iv *interval) split(upper bool) {
	m := iv.mid()
	if upper {
		iv.lo = m
	} else {
		iv.hi = m
	}
}

// bisector is the halving state shared by Encode and DecodeBounds.
// The first bit always refines longitude, then the axes alternate.
type bisector struct {
	lat, lon interval
	lonTurn  bool
}

func newBisector() bisector {
	return bisector{
		lat:     interval{lo: -90, hi: 90},
		lon:     interval{lo: -180, hi: 180},
		lonTurn: true,
	}
}

func (b *bisector) axis() *interval {
	if b.lonTurn {
		return &b.lon
	}
	return &b.lat
}

// above reports whether the point lies in the upper half of the current axis.
func (b *bisector) above(lat, lon float64) bool {
	v := lat
	if b.lonTurn {
		v = lon
	}
	return v > b.axis().mid()
}

func (b *bisector) push(upper bool) {
	b.axis().split(upper)
	b.lonTurn = !b.lonTurn
}

func (b *bisector) bounds() Bounds {
	return Bounds{
		SW: Point{Lat: b.lat.lo, Lon: b.lon.lo},
		NE: Point{Lat: b.lat.hi, Lon: b.lon.hi},
	}
}
