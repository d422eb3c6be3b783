package services

// RFM segment labels. The seed table below pins the canonical (R,F,M)
// triples; every remaining combination falls through to a deterministic
// default keyed on the R and F scores, so the full 5x5x5 space is covered.
const (
	segmentChampions         = "Champions"
	segmentLoyal             = "Loyal"
	segmentPotentialLoyalist = "Potential Loyalist"
	segmentNeedAttention     = "Need Attention"
	segmentAboutToSleep      = "About to Sleep"
	segmentAtRisk            = "At Risk"
	segmentLeaving           = "Leaving"
	segmentLost              = "Lost"
	segmentNew               = "New"
)

var rfmSeedSegments = map[[3]int]string{
	{5, 5, 5}: segmentChampions,
	{5, 5, 4}: segmentChampions,
	{5, 4, 5}: segmentChampions,
	{4, 5, 5}: segmentLoyal,
	{5, 4, 4}: segmentLoyal,
	{4, 5, 4}: segmentLoyal,
	{4, 4, 5}: segmentLoyal,
	{4, 4, 4}: segmentLoyal,
	{5, 3, 3}: segmentPotentialLoyalist,
	{4, 3, 3}: segmentPotentialLoyalist,
	{3, 3, 3}: segmentNeedAttention,
	{3, 3, 4}: segmentNeedAttention,
	{3, 4, 3}: segmentNeedAttention,
	{2, 3, 3}: segmentAboutToSleep,
	{2, 2, 3}: segmentAboutToSleep,
	{2, 3, 2}: segmentAboutToSleep,
	{3, 2, 2}: segmentAboutToSleep,
	{2, 2, 2}: segmentAtRisk,
	{1, 2, 2}: segmentAtRisk,
	{2, 1, 2}: segmentAtRisk,
	{2, 2, 1}: segmentAtRisk,
	{1, 1, 2}: segmentLeaving,
	{1, 2, 1}: segmentLeaving,
	{2, 1, 1}: segmentLeaving,
	{1, 1, 1}: segmentLost,
	{5, 1, 1}: segmentNew,
	{5, 1, 2}: segmentNew,
	{4, 1, 1}: segmentNew,
	{4, 1, 2}: segmentNew,
}

// rfmSegmentFor maps a bucket triple to its label. Scores on a non-quintile
// scale are first projected onto 1..5 so the lookup table stays fixed.
func rfmSegmentFor(r, f, m, buckets int) string {
	r = rescaleScore(r, buckets)
	f = rescaleScore(f, buckets)
	m = rescaleScore(m, buckets)

	if label, ok := rfmSeedSegments[[3]int{r, f, m}]; ok {
		return label
	}

	// Default: recent buyers are loyal or new depending on frequency,
	// mid-recency customers are drifting, the rest are gone.
	switch {
	case r >= 4 && f >= 3:
		return segmentLoyal
	case r >= 4:
		return segmentNew
	case r >= 2:
		return segmentAboutToSleep
	default:
		return segmentLost
	}
}

func rescaleScore(score, buckets int) int {
	if buckets == 5 {
		return score
	}
	if buckets < 2 {
		return 1
	}
	return (score-1)*4/(buckets-1) + 1
}
