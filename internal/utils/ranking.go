package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity       float64 // 时间重力 (1.5)
	WeightComment float64 // 2.0
	WeightLike    float64 // 1.0
	WeightDislike float64 // 1.5
	WeightView    float64 // 0.01
	ScaleFactor   float64 // 放大系数 (100)
	MaxScore      float64
	MinAgeHours   float64
}

var DefaultConfig = RankConfig{
	Gravity:       1.5,
	WeightComment: 2.0,
	WeightLike:    1.0,
	WeightDislike: 1.5,
	WeightView:    0.01,
	ScaleFactor:   100.0,
	MaxScore:      100.0,
	MinAgeHours:   2.0,
}

// CalculateScore returns the hot score of a post, 0 to MaxScore.
func CalculateScore(createdAt time.Time, now time.Time, likes, dislikes int64, views, comments int) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(likes)*DefaultConfig.WeightLike +
		float64(comments)*DefaultConfig.WeightComment +
		float64(views)*DefaultConfig.WeightView -
		float64(dislikes)*DefaultConfig.WeightDislike
	if weightedSum < 0 {
		weightedSum = 0 // 防止负数无法取对数
	}

	// log10(sum + 1) -> sum=0 时结果为 0
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+DefaultConfig.MinAgeHours, DefaultConfig.Gravity)

	return math.Min(numerator/decay, DefaultConfig.MaxScore)
}
