package tsparams

const (
	// Label represents the resilience label that can be used for test cases selection.
	Label = "resilience"

	// OSDPodLabel selects the ceph OSD pods.
	OSDPodLabel = "app=rook-ceph-osd"
)

// GatherCommands collect node level state when a disruptive case fails.
var GatherCommands = []string{
	"sudo journalctl -u kubelet --no-pager --since '-30 min'",
	"sudo dmesg -T | tail -n 200",
	"lsblk",
}

// GatherFiles are node files copied over scp on failure. These are too large
// to stream through a command session.
var GatherFiles = []string{
	"/var/log/audit/audit.log",
}
