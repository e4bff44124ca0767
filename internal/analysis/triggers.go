package analysis

// writesTransitively reports whether method start, or anything it calls
// on the same receiver, writes the property with the given accessor
// name. The policy is conservative: any write path is a cycle, with no
// attempt to prove the update damped or unreachable.
func writesTransitively(start string, accessor string, facts map[string]*Facts) bool {
	seen := map[string]bool{}
	var walk func(name string) bool
	walk = func(name string) bool {
		if seen[name] {
			return false
		}
		seen[name] = true
		f, ok := facts[name]
		if !ok {
			return false
		}
		if f.SelfWrites[accessor] {
			return true
		}
		for callee := range f.SelfCalls {
			if walk(callee) {
				return true
			}
		}
		return false
	}
	return walk(start)
}
