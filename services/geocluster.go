package services

import (
	"math"

	"sustainhub-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MaxZoom is the deepest map zoom the clustering distinguishes.
	MaxZoom = 18
	// BaseTolerance is the per-axis merge distance in degrees at MaxZoom,
	// roughly 10 meters at the equator.
	BaseTolerance = 0.0001
)

// MapIssue is the projection of an issue the map display needs.
type MapIssue struct {
	ID        primitive.ObjectID `json:"id"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Status    models.IssueStatus `json:"status"`
	Category  string             `json:"category"`
}

// Cluster groups issues whose coordinates fall within the zoom-dependent
// tolerance of the cluster's anchor point. PrimaryStatus is the
// highest-priority status present, so active issues dominate the marker.
type Cluster struct {
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	PrimaryStatus models.IssueStatus `json:"primaryStatus"`
	Issues        []MapIssue         `json:"issues"`
}

// ToleranceForZoom returns the per-axis merge distance in degrees at the
// given zoom. Tolerance doubles for every zoom step away from MaxZoom.
func ToleranceForZoom(zoom int) float64 {
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	if zoom < 0 {
		zoom = 0
	}
	return BaseTolerance * math.Pow(2, float64(MaxZoom-zoom))
}

// ClusterIssues greedily groups issues for display at the given zoom. Each
// issue joins the first existing cluster whose anchor is within tolerance
// on both axes, in insertion order, or starts a new cluster anchored at its
// own coordinates. Pure and read-only: recompute on every zoom change.
func ClusterIssues(issues []MapIssue, zoom int) []Cluster {
	tolerance := ToleranceForZoom(zoom)

	var clusters []Cluster
	for _, issue := range issues {
		joined := false
		for i := range clusters {
			if math.Abs(issue.Latitude-clusters[i].Latitude) <= tolerance &&
				math.Abs(issue.Longitude-clusters[i].Longitude) <= tolerance {
				clusters[i].Issues = append(clusters[i].Issues, issue)
				if issue.Status.DisplayPriority() < clusters[i].PrimaryStatus.DisplayPriority() {
					clusters[i].PrimaryStatus = issue.Status
				}
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, Cluster{
				Latitude:      issue.Latitude,
				Longitude:     issue.Longitude,
				PrimaryStatus: issue.Status,
				Issues:        []MapIssue{issue},
			})
		}
	}
	return clusters
}
