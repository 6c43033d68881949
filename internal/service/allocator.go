package service

import (
	"fmt"
	"learnpath_backend/internal/client"
	"learnpath_backend/internal/model"
	"math"
	"sort"
)

// budgetTolerance 预算容差：里程碑总时长允许超出 total_hours 的比例
const budgetTolerance = 0.01

// Topic 一个里程碑主题，对应一路检索查询（学习目标或某个技能缺口）
type Topic struct {
	Query       string
	Title       string
	Description string
	Remediation bool // 先修补强主题，排在路径最前
}

// Candidate 归属于某主题的候选资源
type Candidate struct {
	Topic    string
	Resource client.RetrievalResult
}

// Allocation 纯函数分配结果
type Allocation struct {
	Milestones []model.Milestone
	Dropped    []string // 每条丢弃决策的说明，进入 reasoning
	Notes      []string
}

// AllocateBudget 把候选资源按主题分组成里程碑，并使总时长不超过预算。
// 对相同输入严格确定：去重保高分，预算超限先丢低分资源（同分先丢时长更长的，
// 再按资源ID逆序），落选与调整全部记录。不做任何 I/O。
func AllocateBudget(candidates []Candidate, topics []Topic, totalHours float64) Allocation {
	var alloc Allocation

	// 1. 全路径内资源去重：同一资源保留评分最高的归属，
	//    同分时保留主题顺序靠前的归属
	topicRank := make(map[string]int, len(topics))
	for i, t := range topics {
		topicRank[t.Query] = i
	}

	best := make(map[string]Candidate)
	for _, c := range candidates {
		prev, seen := best[c.Resource.ResourceID]
		if !seen {
			best[c.Resource.ResourceID] = c
			continue
		}
		if c.Resource.Score > prev.Resource.Score ||
			(c.Resource.Score == prev.Resource.Score && topicRank[c.Topic] < topicRank[prev.Topic]) {
			best[c.Resource.ResourceID] = c
		}
	}

	kept := make([]Candidate, 0, len(best))
	for _, c := range best {
		kept = append(kept, c)
	}
	if dup := len(candidates) - len(kept); dup > 0 {
		alloc.Notes = append(alloc.Notes, fmt.Sprintf("去重合并了 %d 个跨主题重复资源", dup))
	}

	// 2. 预算裁剪：低分先丢，同分先丢时长更长的（同样的小时数装进更多内容），
	//    再按资源ID逆序，保证确定性
	sort.Slice(kept, func(i, j int) bool {
		ri, rj := kept[i].Resource, kept[j].Resource
		if ri.Score != rj.Score {
			return ri.Score < rj.Score
		}
		if ri.DurationMin != rj.DurationMin {
			return ri.DurationMin > rj.DurationMin
		}
		return ri.ResourceID > rj.ResourceID
	})

	sumHours := 0.0
	for _, c := range kept {
		sumHours += float64(c.Resource.DurationMin) / 60
	}

	limit := totalHours * (1 + budgetTolerance)
	for len(kept) > 0 && sumHours > limit {
		victim := kept[0]
		kept = kept[1:]
		h := float64(victim.Resource.DurationMin) / 60
		sumHours -= h
		alloc.Dropped = append(alloc.Dropped,
			fmt.Sprintf("丢弃资源 %s（评分 %.2f，%.1f 小时）：超出 %.0f 小时总预算",
				victim.Resource.ResourceID, victim.Resource.Score, h, totalHours))
	}

	// 3. 按主题分组为里程碑，主题内按评分降序排列资源
	byTopic := make(map[string][]Candidate)
	for _, c := range kept {
		byTopic[c.Topic] = append(byTopic[c.Topic], c)
	}

	order := 0
	for _, t := range topics {
		group := byTopic[t.Query]
		if len(group) == 0 && !t.Remediation {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			ri, rj := group[i].Resource, group[j].Resource
			if ri.Score != rj.Score {
				return ri.Score > rj.Score
			}
			if ri.DurationMin != rj.DurationMin {
				return ri.DurationMin < rj.DurationMin
			}
			return ri.ResourceID < rj.ResourceID
		})

		m := model.Milestone{
			Title:       t.Title,
			Description: t.Description,
			Order:       order,
		}

		skillSet := make(map[string]bool)
		hours := 0.0
		for i, c := range group {
			r := c.Resource
			hours += float64(r.DurationMin) / 60
			for _, s := range r.Skills {
				if !skillSet[s] {
					skillSet[s] = true
					m.SkillsGained = append(m.SkillsGained, s)
				}
			}
			m.Resources = append(m.Resources, model.ResourceItem{
				ResourceID:  r.ResourceID,
				Title:       r.Title,
				URL:         r.URL,
				DurationMin: r.DurationMin,
				Level:       r.Level,
				Skills:      r.Skills,
				WhyIncluded: fmt.Sprintf("与主题「%s」匹配，检索评分 %.2f", t.Title, r.Score),
				Order:       i,
				Score:       r.Score,
			})
		}
		sort.Strings(m.SkillsGained)
		m.EstimatedHours = roundHours(hours)

		alloc.Milestones = append(alloc.Milestones, m)
		order++
	}

	return alloc
}

// EstimateWeeks 估算周数：总小时数除以每周小时数向上取整
func EstimateWeeks(totalHours, hoursPerWeek float64) int {
	if hoursPerWeek <= 0 {
		return 0
	}
	return int(math.Ceil(totalHours / hoursPerWeek))
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
