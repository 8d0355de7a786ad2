package services

// CronbachAlpha computes Cronbach's alpha for rows of ratings shaped
// [respondents][dimensions]. Population variance is used throughout, so
// perfectly correlated dimensions give 1. The result is clamped to [0, 1]
// and is 0 for fewer than two dimensions or ragged rows.
func CronbachAlpha(rows [][]float64) float64 {
	n := len(rows)
	if n == 0 {
		return 0
	}
	k := len(rows[0])
	if k < 2 {
		return 0
	}
	columns := make([][]float64, k)
	totals := make([]float64, n)
	for i, row := range rows {
		if len(row) != k {
			return 0
		}
		for j, v := range row {
			columns[j] = append(columns[j], v)
			totals[i] += v
		}
	}
	totalVar := variance(totals)
	if totalVar == 0 {
		return 0
	}
	var sumVars float64
	for _, col := range columns {
		sumVars += variance(col)
	}
	kf := float64(k)
	alpha := kf / (kf - 1) * (1 - sumVars/totalVar)
	return min(max(alpha, 0), 1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}
