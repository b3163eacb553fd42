package search

// frontier is a min-heap of nodes ordered by f, then g, then insertion.
type frontier[S, A any] []*Node[S, A]

func (f frontier[S, A]) Len() int { return len(f) }

func (f frontier[S, A]) Less(i, j int) bool {
	fi, fj := f[i].F(), f[j].F()
	if fi != fj {
		return fi < fj
	}
	if f[i].G != f[j].G {
		return f[i].G < f[j].G
	}
	return f[i].seq < f[j].seq
}

func (f frontier[S, A]) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier[S, A]) Push(x any) {
	n := x.(*Node[S, A])
	n.index = len(*f)
	*f = append(*f, n)
}

func (f *frontier[S, A]) Pop() any {
	old := *f
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*f = old[:last]
	return n
}
