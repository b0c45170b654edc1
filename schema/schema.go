// Package schema has models and constants shared by all parts of codemonitor.
package schema

// GroupPoints splits a range query result into per-repository series,
// keeping the order in which repositories first appear.
func GroupPoints(points []HistoryPoint, names map[int64]string) []StatsSeries {
	var series []StatsSeries
	index := make(map[int64]int)
	for _, p := range points {
		i, ok := index[p.RepoID]
		if !ok {
			i = len(series)
			index[p.RepoID] = i
			series = append(series, StatsSeries{RepoID: p.RepoID, Name: names[p.RepoID]})
		}
		series[i].Points = append(series[i].Points, p)
	}
	return series
}
