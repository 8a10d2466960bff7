package layout

// Regions is the sequence of areas available to lay content into: a
// current region plus a backlog of further regions content overflowing the
// current one continues into (spec §4.H: "Regions ... the areas available
// to lay content into, one page/column at a time"). Full is the size of a
// region before any content has consumed part of it, used to decide how
// much of a repeating region (e.g. every column on a page) remains once
// Size has been partially filled.
type Regions struct {
	Size    Size
	Full    Size
	Backlog []Size
	Expand  Axes[bool] // whether this region's frame should be exactly Size or only as large as its content
}

// Region returns a fixed single-region sequence with no backlog — the
// common case for content laid into one already-known box (a cell, an
// inline equation).
func Region(size Size) Regions {
	return Regions{Size: size, Full: size}
}

// Next advances to the next backlog region, repeating the last backlog
// entry indefinitely once the backlog is exhausted (mirroring unbounded
// page flow: the last page size applies to every subsequent page).
func (r Regions) Next() Regions {
	if len(r.Backlog) == 0 {
		return Regions{Size: r.Size, Full: r.Full, Expand: r.Expand}
	}
	next := r.Backlog[0]
	rest := r.Backlog[1:]
	return Regions{Size: next, Full: next, Backlog: rest, Expand: r.Expand}
}

// Shrink returns r with its current region's available size reduced by
// used along the block axis (vertical, for top-to-bottom flow).
func (r Regions) Shrink(used Size) Regions {
	out := r
	out.Size = Size{X: r.Size.X, Y: maxLength(r.Size.Y-used.Y, 0)}
	return out
}
