package insights

import (
	"context"
	"sort"
	"time"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
)

type (
	// GroupInsight is the per-cohort snapshot over the trailing window.
	GroupInsight struct {
		GroupID            string    `json:"group_id"`
		GroupName          string    `json:"group_name"`
		AveragePerformance int       `json:"average_performance"`
		AttendanceRate     int       `json:"attendance_rate"`
		CompletionRate     int       `json:"completion_rate"`
		TopPerformers      []string  `json:"top_performers"`
		NeedsAttention     []string  `json:"needs_attention"`
		Recommendations    []string  `json:"recommendations"`
		GeneratedAt        time.Time `json:"generated_at"`
	}

	// GroupService generates per-cohort insights.
	GroupService struct {
		ds     Datastore
		conf   core.InsightsConfig
		logger core.Logger
	}

	memberScore struct {
		name  string
		score int
	}
)

func NewGroupService(ds Datastore, conf core.InsightsConfig, logger core.Logger) *GroupService {
	return &GroupService{ds: ds, conf: conf, logger: logger}
}

// Insight aggregates the roster's records over the trailing window.
// An empty roster is a valid degenerate snapshot, not an error.
func (svc *GroupService) Insight(ctx context.Context, id string) (GroupInsight, error) {
	grp, err := svc.ds.GetGroup(ctx, id)
	if err != nil {
		return GroupInsight{}, svc.fail("getting group", err)
	}

	ins := GroupInsight{
		GroupID:         grp.ID,
		GroupName:       grp.Name,
		TopPerformers:   []string{},
		NeedsAttention:  []string{},
		Recommendations: []string{},
		GeneratedAt:     nowFunc().UTC(),
	}

	if len(grp.Roster) == 0 {
		ins.Recommendations = append(ins.Recommendations, "Group has no members; assign students or archive it")
		return ins, nil
	}

	since := nowFunc().UTC().AddDate(0, 0, -svc.conf.GroupWindowDays)

	var (
		gradeSum     float64
		gradedCount  int
		presentCount int
		attTotal     int
		completed    int
		members      []memberScore
	)

	for _, member := range grp.Roster {
		perf, err := svc.ds.PerformanceRecordsSince(ctx, member.ID, since)
		if err != nil {
			return GroupInsight{}, svc.fail("querying member performance", err)
		}
		att, err := svc.ds.AttendanceRecordsSince(ctx, member.ID, since)
		if err != nil {
			return GroupInsight{}, svc.fail("querying member attendance", err)
		}

		samples := toSamples(perf)
		memberAvg, graded := meanScore(samples)
		for _, s := range samples {
			if s.graded {
				gradeSum += s.score
			}
		}
		gradedCount += graded
		if len(perf) > 0 {
			completed++
		}

		var memberPresent int
		for _, r := range att {
			if r.IsPresent(svc.conf.LateCountsAsPresent) {
				memberPresent++
			}
		}
		presentCount += memberPresent
		attTotal += len(att)

		members = append(members, memberScore{
			name: member.Name,
			score: CompositeScore(
				memberAvg,
				rateF(memberPresent, len(att)),
				svc.conf.GroupGradeWeight,
				svc.conf.GroupAttendanceWeight,
			),
		})
	}

	var avgPerf float64
	if gradedCount > 0 {
		avgPerf = gradeSum / float64(gradedCount)
	}
	attRate := rateF(presentCount, attTotal)
	completionRate := rateF(completed, len(grp.Roster))

	ins.AveragePerformance = clampScore(roundHalfUp(avgPerf))
	ins.AttendanceRate = clampScore(roundHalfUp(attRate))
	ins.CompletionRate = clampScore(roundHalfUp(completionRate))
	ins.TopPerformers = topPerformers(members, 3)

	names, flagged := needsAttention(members, 3)
	ins.NeedsAttention = names

	svc.applyRules(&ins, grp, avgPerf, attRate, completionRate, flagged)
	return ins, nil
}

// applyRules fires the independent group-level recommendation thresholds.
// flagged is the uncapped count of members scoring below the attention bar.
func (svc *GroupService) applyRules(ins *GroupInsight, grp student.Group, avgPerf, attRate, completionRate float64, flagged int) {
	r := svc.conf.Rules

	if avgPerf < r.GroupLowPerformance {
		ins.Recommendations = append(ins.Recommendations, "Average performance is low; review the curriculum pace")
	}
	if attRate < r.GroupLowAttendance {
		ins.Recommendations = append(ins.Recommendations, "Group attendance is low; investigate scheduling conflicts")
	}
	if completionRate < r.GroupLowCompletion {
		ins.Recommendations = append(ins.Recommendations, "Many members have no recent assessments; schedule recitation checks")
	}
	if grp.Capacity > 0 && float64(len(grp.Roster)) < r.GroupMinFillRatio*float64(grp.Capacity) {
		ins.Recommendations = append(ins.Recommendations, "Group is under half capacity; consider merging groups")
	}
	if float64(flagged) > r.GroupAttentionShare*float64(len(grp.Roster)) {
		ins.Recommendations = append(ins.Recommendations, "A large share of the group needs attention; add a teaching assistant")
	}
}

func (svc *GroupService) fail(msg string, err error) error {
	if err == ErrNotFound {
		return ErrNotFound
	}
	svc.logger.Error(msg, err)
	return ErrUnavailable
}

// topPerformers returns up to max member names scoring >= 80, best first.
// Ties break by name so snapshots are deterministic.
func topPerformers(members []memberScore, max int) []string {
	var qualified []memberScore
	for _, m := range members {
		if m.score >= 80 {
			qualified = append(qualified, m)
		}
	}
	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].score != qualified[j].score {
			return qualified[i].score > qualified[j].score
		}
		return qualified[i].name < qualified[j].name
	})
	return memberNames(qualified, max)
}

// needsAttention returns up to max member names scoring < 60, worst first,
// plus the uncapped count of members below the bar. The cap is presentation
// only; the rules reason about the full set.
func needsAttention(members []memberScore, max int) ([]string, int) {
	var flagged []memberScore
	for _, m := range members {
		if m.score < 60 {
			flagged = append(flagged, m)
		}
	}
	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].score != flagged[j].score {
			return flagged[i].score < flagged[j].score
		}
		return flagged[i].name < flagged[j].name
	})
	return memberNames(flagged, max), len(flagged)
}

func memberNames(members []memberScore, max int) []string {
	if len(members) > max {
		members = members[:max]
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.name)
	}
	return names
}
