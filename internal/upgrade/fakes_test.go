package upgrade

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
	awslm "tasnim.dev/pro-upgrade/internal/aws/licensemanager"
	awsssm "tasnim.dev/pro-upgrade/internal/aws/ssm"
)

// callLog records provider calls as "op:id" across all fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(op, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op+":"+id)
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *callLog) has(op, id string) bool {
	for _, call := range c.all() {
		if call == op+":"+id {
			return true
		}
	}
	return false
}

type fakeCompute struct {
	log         *callLog
	billing     map[string]awsec2.BillingInfo
	describeErr map[string]error
	stopErr     map[string]error
	startErr    map[string]error
	panicOn     map[string]bool
	// stopDelay slows StopAndWait down so concurrency can be observed.
	stopDelay time.Duration
	// onDescribe runs before DescribeInstance answers.
	onDescribe func(id string)
}

func (f *fakeCompute) DescribeInstance(ctx context.Context, id string) (awsec2.BillingInfo, error) {
	f.log.add("describe", id)
	if f.onDescribe != nil {
		f.onDescribe(id)
	}
	if f.panicOn[id] {
		panic(fmt.Sprintf("unexpected response for %s", id))
	}
	if err := f.describeErr[id]; err != nil {
		return awsec2.BillingInfo{}, err
	}
	b, ok := f.billing[id]
	if !ok {
		return awsec2.BillingInfo{}, fmt.Errorf("DescribeInstances %s: %w", id, awsec2.ErrInstanceNotFound)
	}
	return b, nil
}

func (f *fakeCompute) StopAndWait(ctx context.Context, id string, maxWait time.Duration) error {
	f.log.add("stop", id)
	if f.stopDelay > 0 {
		time.Sleep(f.stopDelay)
	}
	return f.stopErr[id]
}

func (f *fakeCompute) StartAndWait(ctx context.Context, id string, maxWait time.Duration) error {
	f.log.add("start", id)
	return f.startErr[id]
}

type fakeInventory struct {
	log     *callLog
	managed map[string]awsssm.ManagedInstance
	err     map[string]error
}

func (f *fakeInventory) ManagedInstance(ctx context.Context, id string) (awsssm.ManagedInstance, error) {
	f.log.add("inventory", id)
	if err := f.err[id]; err != nil {
		return awsssm.ManagedInstance{}, err
	}
	mi, ok := f.managed[id]
	if !ok {
		return awsssm.ManagedInstance{}, fmt.Errorf("%s: %w", id, awsssm.ErrNotManaged)
	}
	return mi, nil
}

type fakeLicense struct {
	log *callLog

	mu sync.Mutex
	// statuses is the sequence GetConversionTask walks through per instance;
	// the last entry repeats.
	statuses  map[string][]string
	createErr map[string]error
	getErr    map[string]error
	polls     map[string]int
	arns      []string
}

func (f *fakeLicense) CreateConversionTask(ctx context.Context, arn, sourceOp, destOp string) (string, error) {
	id := arn[strings.LastIndex(arn, "/")+1:]
	f.log.add("convert", id)
	f.mu.Lock()
	f.arns = append(f.arns, arn)
	f.mu.Unlock()
	if sourceOp != UsageOperationLTS || destOp != UsageOperationPro {
		return "", fmt.Errorf("unexpected usage operations %s -> %s", sourceOp, destOp)
	}
	if err := f.createErr[id]; err != nil {
		return "", err
	}
	return "lct-" + id, nil
}

func (f *fakeLicense) GetConversionTask(ctx context.Context, taskID string) (awslm.ConversionTask, error) {
	id := taskID[len("lct-"):]
	f.log.add("poll", id)
	if err := f.getErr[id]; err != nil {
		return awslm.ConversionTask{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.polls == nil {
		f.polls = make(map[string]int)
	}
	seq := f.statuses[id]
	if len(seq) == 0 {
		seq = []string{"SUCCEEDED"}
	}
	n := f.polls[id]
	f.polls[id]++
	status := seq[min(n, len(seq)-1)]

	msg := ""
	if status == "FAILED" {
		msg = "ubuntu-advantage-tools missing"
	}
	return awslm.ConversionTask{TaskID: taskID, Status: status, StatusMessage: msg}, nil
}

func (f *fakeLicense) pollCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[id]
}

// fleet wires the three fakes to one shared call log.
type fleet struct {
	calls     *callLog
	compute   *fakeCompute
	inventory *fakeInventory
	license   *fakeLicense
}

func newFleet() *fleet {
	calls := &callLog{}
	return &fleet{
		calls:     calls,
		compute:   &fakeCompute{log: calls, billing: map[string]awsec2.BillingInfo{}, describeErr: map[string]error{}, stopErr: map[string]error{}, startErr: map[string]error{}, panicOn: map[string]bool{}},
		inventory: &fakeInventory{log: calls, managed: map[string]awsssm.ManagedInstance{}, err: map[string]error{}},
		license:   &fakeLicense{log: calls, statuses: map[string][]string{}, createErr: map[string]error{}, getErr: map[string]error{}},
	}
}

// add registers an instance known to both EC2 and SSM.
func (f *fleet) add(id, platform, version, usageOperation string) {
	f.compute.billing[id] = awsec2.BillingInfo{InstanceID: id, State: "running", PlatformDetails: "Linux/UNIX", UsageOperation: usageOperation}
	f.inventory.managed[id] = awsssm.ManagedInstance{InstanceID: id, PlatformName: platform, PlatformVersion: version, PingStatus: "Online"}
}

func (f *fleet) providers() Providers {
	return Providers{Compute: f.compute, Inventory: f.inventory, License: f.license}
}

func testConfig() Config {
	return Config{
		Region:            "us-east-1",
		AccountID:         "111122223333",
		PollInterval:      5 * time.Second,
		LifecycleTimeout:  time.Minute,
		ConversionTimeout: time.Minute,
	}
}

func nullLogger() (logrus.FieldLogger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}
