package ledger

// GroupByCurrency partitions a feed by currency tag, keeping input order
// within each group. Amounts under different tags must never be netted
// together, so callers run ComputeNetBalances once per group.
func GroupByCurrency(txs []Transaction) map[string][]Transaction {
	groups := make(map[string][]Transaction)
	for _, tx := range txs {
		groups[tx.Currency] = append(groups[tx.Currency], tx)
	}
	return groups
}
