package order

// Product is the nested-scope refinement of an outer timestamp O by an
// inner timestamp I, per spec.md §4.2: a subgraph's inner timestamp
// refines the outer scope's own. The product order compares both
// components independently.
type Product[O PartialOrder[O], I PartialOrder[I]] struct {
	Outer O
	Inner I
}

// LessEqual implements PartialOrder[Product[O, I]] with the product order:
// (o1, i1) <= (o2, i2) iff o1 <= o2 and i1 <= i2.
func (p Product[O, I]) LessEqual(other Product[O, I]) bool {
	return p.Outer.LessEqual(other.Outer) && p.Inner.LessEqual(other.Inner)
}

// ToInner is the total injection from an outer timestamp into the nested
// scope: to_inner(o) = (o, min).
func ToInner[O PartialOrder[O], I PartialOrder[I]](outer O, innerMin I) Product[O, I] {
	return Product[O, I]{Outer: outer, Inner: innerMin}
}

// ToOuter is the projection from a nested timestamp back to its enclosing
// scope: to_outer((o, i)) = o.
func ToOuter[O PartialOrder[O], I PartialOrder[I]](p Product[O, I]) O {
	return p.Outer
}

// ProductSummary lifts an outer summary and an inner summary through a
// nested scope, per spec.md §4.2 ("path summaries compose by lifting the
// inner summary through summarize"). Applying a ProductSummary steps both
// components of a Product timestamp; it is defined only when both the
// outer and the inner step are defined.
type ProductSummary[O PartialOrder[O], I PartialOrder[I], SO PathSummary[O, SO], SI PathSummary[I, SI]] struct {
	Outer SO
	Inner SI
}

// LessEqual implements PartialOrder[ProductSummary[O, I, SO, SI]], the
// product order on the two component summaries: this is what lets
// pointstamp.Tracker maintain an antichain of minimal ProductSummary path
// summaries between two locations, exactly as it already does for any
// other PathSummary.
func (s ProductSummary[O, I, SO, SI]) LessEqual(other ProductSummary[O, I, SO, SI]) bool {
	return s.Outer.LessEqual(other.Outer) && s.Inner.LessEqual(other.Inner)
}

// ResultsIn implements Summary[Product[O, I], ProductSummary[O, I, SO, SI]].
func (s ProductSummary[O, I, SO, SI]) ResultsIn(t Product[O, I]) (Product[O, I], bool) {
	outer, ok := s.Outer.ResultsIn(t.Outer)
	if !ok {
		return Product[O, I]{}, false
	}
	inner, ok := s.Inner.ResultsIn(t.Inner)
	if !ok {
		return Product[O, I]{}, false
	}
	return Product[O, I]{Outer: outer, Inner: inner}, true
}

// FollowedBy composes two product summaries component-wise.
func (s ProductSummary[O, I, SO, SI]) FollowedBy(other ProductSummary[O, I, SO, SI]) ProductSummary[O, I, SO, SI] {
	return ProductSummary[O, I, SO, SI]{
		Outer: s.Outer.FollowedBy(other.Outer),
		Inner: s.Inner.FollowedBy(other.Inner),
	}
}
