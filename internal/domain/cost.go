package domain

// ComputeTotals rolls checklist repair lines up into per-area subtotals and
// a grand total. Pure and deterministic: no I/O, no side effects. An area
// with no items contributes a zero subtotal; an empty checklist yields an
// empty map and zero total.
func ComputeTotals(checklist Checklist) (perArea map[string]Money, total Money) {
	perArea = make(map[string]Money, len(checklist))
	for _, entry := range checklist {
		var subtotal Money
		for _, item := range entry.Items {
			subtotal = subtotal.Add(item.Subtotal())
		}
		perArea[entry.Area] = subtotal
		total = total.Add(subtotal)
	}
	return perArea, total
}
