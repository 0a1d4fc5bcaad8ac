package tsparams

const (
	// Label represents the monitoring label that can be used for test cases selection.
	Label = "monitoring"

	// CephHealthQuery reports 0 when ceph is HEALTH_OK.
	CephHealthQuery = "ceph_health_status"

	// TotalCapacityQuery reports the raw capacity of the ceph cluster in bytes.
	TotalCapacityQuery = "ceph_cluster_total_bytes"

	// UsedCapacityQuery reports the used raw capacity in bytes.
	UsedCapacityQuery = "ceph_cluster_total_used_bytes"

	// DownOSDsQuery matches OSDs currently marked down.
	DownOSDsQuery = "ceph_osd_up == 0"

	// CephRulesName is the PrometheusRule the operator ships for ceph alerting.
	CephRulesName = "prometheus-ceph-rules"
)
