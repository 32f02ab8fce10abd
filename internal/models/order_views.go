package models

import (
	"time"

	"overwatch-ingest/internal/domain"
)

// TaskingOrderView 任务命令视图（元数据摘要，不含树）
type TaskingOrderView struct {
	TaskingOrderID   string     `json:"tasking_order_id"`
	ScenarioID       string     `json:"scenario_id"`
	PlanningDocID    *string    `json:"planning_doc_id,omitempty"`
	OrderType        string     `json:"order_type"`
	OrderCode        string     `json:"order_code"`
	IssuingAuthority string     `json:"issuing_authority"`
	Classification   string     `json:"classification"`
	EffectiveStart   *time.Time `json:"effective_start,omitempty"`
	EffectiveEnd     *time.Time `json:"effective_end,omitempty"`
	ATODayNumber     *int       `json:"ato_day_number,omitempty"`
	Confidence       float64    `json:"confidence"`
	IngestedAt       time.Time  `json:"ingested_at"`
}

// NewTaskingOrderView 由领域模型构建摘要视图
func NewTaskingOrderView(o *domain.TaskingOrder) TaskingOrderView {
	return TaskingOrderView{
		TaskingOrderID:   o.TaskingOrderID,
		ScenarioID:       o.ScenarioID,
		PlanningDocID:    strPtr(o.PlanningDocID),
		OrderType:        o.OrderType,
		OrderCode:        o.OrderCode,
		IssuingAuthority: o.IssuingAuthority,
		Classification:   o.Classification,
		EffectiveStart:   timePtr(o.EffectiveStart),
		EffectiveEnd:     timePtr(o.EffectiveEnd),
		ATODayNumber:     intPtr(o.ATODayNumber),
		Confidence:       o.Confidence,
		IngestedAt:       o.IngestedAt,
	}
}

// OrderTreeView 任务命令完整树视图
type OrderTreeView struct {
	TaskingOrderView
	RawText   string        `json:"raw_text"`
	RawFormat string        `json:"raw_format"`
	Packages  []PackageView `json:"mission_packages"`
}

// PackageView 任务编组视图
type PackageView struct {
	PackageID   string        `json:"package_id"`
	PackageName string        `json:"package_name"`
	Description string        `json:"description,omitempty"`
	Missions    []MissionView `json:"missions"`
}

// MissionView 任务视图（含全部子实体）
type MissionView struct {
	MissionID           string           `json:"mission_id"`
	MissionNumber       string           `json:"mission_number"`
	Callsign            string           `json:"callsign,omitempty"`
	Platform            string           `json:"platform,omitempty"`
	UnitDesignation     string           `json:"unit_designation,omitempty"`
	MissionType         string           `json:"mission_type,omitempty"`
	Status              string           `json:"status"`
	Waypoints           []WaypointView   `json:"waypoints"`
	TimeWindows         []TimeWindowView `json:"time_windows"`
	Targets             []TargetView     `json:"targets"`
	SupportRequirements []SupportView    `json:"support_requirements"`
	SpaceNeeds          []SpaceNeedView  `json:"space_needs"`
}

// WaypointView 航路点视图
type WaypointView struct {
	WaypointID string     `json:"waypoint_id"`
	Seq        int        `json:"seq"`
	Type       string     `json:"type"`
	Name       string     `json:"name,omitempty"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	AltitudeFt *int       `json:"altitude_ft,omitempty"`
	TimeOver   *time.Time `json:"time_over,omitempty"`
}

// TimeWindowView 时间窗视图
type TimeWindowView struct {
	WindowID  string     `json:"window_id"`
	Type      string     `json:"type"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// TargetView 任务目标视图
type TargetView struct {
	TargetID      string  `json:"target_id"`
	Ident         *string `json:"ident,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PriorityRank  *int    `json:"priority_rank,omitempty"`
	DesiredEffect string  `json:"desired_effect,omitempty"`
}

// SupportView 支援需求视图
type SupportView struct {
	SupportID        string `json:"support_id"`
	Type             string `json:"type"`
	Description      string `json:"description,omitempty"`
	ProviderCallsign string `json:"provider_callsign,omitempty"`
}

// SpaceNeedView 天基能力需求视图
type SpaceNeedView struct {
	SpaceNeedID string     `json:"space_need_id"`
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

// NewOrderTreeView 由领域树构建完整视图
func NewOrderTreeView(tree *domain.OrderTree) OrderTreeView {
	view := OrderTreeView{
		TaskingOrderView: NewTaskingOrderView(tree.Order),
		RawText:          tree.Order.RawText,
		RawFormat:        tree.Order.RawFormat,
		Packages:         make([]PackageView, 0, len(tree.Packages)),
	}

	for _, pkg := range tree.Packages {
		pkgView := PackageView{
			PackageID:   pkg.Package.PackageID,
			PackageName: pkg.Package.PackageName,
			Description: pkg.Package.Description,
			Missions:    make([]MissionView, 0, len(pkg.Missions)),
		}
		for _, m := range pkg.Missions {
			pkgView.Missions = append(pkgView.Missions, newMissionView(m))
		}
		view.Packages = append(view.Packages, pkgView)
	}

	return view
}

func newMissionView(node *domain.MissionNode) MissionView {
	m := node.Mission
	view := MissionView{
		MissionID:           m.MissionID,
		MissionNumber:       m.MissionNumber,
		Callsign:            m.Callsign,
		Platform:            m.Platform,
		UnitDesignation:     m.UnitDesignation,
		MissionType:         m.MissionType,
		Status:              m.Status,
		Waypoints:           make([]WaypointView, 0, len(node.Waypoints)),
		TimeWindows:         make([]TimeWindowView, 0, len(node.TimeWindows)),
		Targets:             make([]TargetView, 0, len(node.Targets)),
		SupportRequirements: make([]SupportView, 0, len(node.Supports)),
		SpaceNeeds:          make([]SpaceNeedView, 0, len(node.SpaceNeeds)),
	}

	for _, wp := range node.Waypoints {
		view.Waypoints = append(view.Waypoints, WaypointView{
			WaypointID: wp.WaypointID,
			Seq:        wp.Seq,
			Type:       wp.WaypointType,
			Name:       wp.Name,
			Latitude:   wp.Latitude,
			Longitude:  wp.Longitude,
			AltitudeFt: intPtr(wp.AltitudeFt),
			TimeOver:   timePtr(wp.TimeOver),
		})
	}
	for _, tw := range node.TimeWindows {
		view.TimeWindows = append(view.TimeWindows, TimeWindowView{
			WindowID:  tw.WindowID,
			Type:      tw.WindowType,
			StartTime: timePtr(tw.StartTime),
			EndTime:   timePtr(tw.EndTime),
		})
	}
	for _, tgt := range node.Targets {
		view.Targets = append(view.Targets, TargetView{
			TargetID:      tgt.TargetID,
			Ident:         strPtr(tgt.TargetIdent),
			Name:          tgt.TargetName,
			Description:   tgt.Description,
			Latitude:      tgt.Latitude,
			Longitude:     tgt.Longitude,
			PriorityRank:  intPtr(tgt.PriorityRank),
			DesiredEffect: tgt.DesiredEffect,
		})
	}
	for _, sup := range node.Supports {
		view.SupportRequirements = append(view.SupportRequirements, SupportView{
			SupportID:        sup.SupportID,
			Type:             sup.SupportType,
			Description:      sup.Description,
			ProviderCallsign: sup.ProviderCallsign,
		})
	}
	for _, sn := range node.SpaceNeeds {
		view.SpaceNeeds = append(view.SpaceNeeds, SpaceNeedView{
			SpaceNeedID: sn.SpaceNeedID,
			Type:        sn.CapabilityType,
			Description: sn.Description,
			WindowStart: timePtr(sn.WindowStart),
			WindowEnd:   timePtr(sn.WindowEnd),
		})
	}

	return view
}
