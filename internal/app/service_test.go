package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	service "github.com/okian/rotorsim/internal/app"
	"github.com/okian/rotorsim/internal/domain/degradation"
	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type constSource struct{ f float64 }

func (s constSource) Float64() float64 { return s.f }
func (s constSource) IntN(n int) int  { return n / 2 }

func newService(opts ...service.Option) *service.Service {
	m := degradation.New(degradation.WithSource(constSource{f: 0.5}))
	return service.New(append([]service.Option{service.WithModel(m)}, opts...)...)
}

// panickyMachine fails maintenance.
type panickyMachine struct {
	*degradation.Model
}

func (panickyMachine) Maintenance() { panic("actuator jammed") }

type recordingExporter struct {
	snaps  chan model.Snapshot
	closed bool
	err    error
}

func (e *recordingExporter) Export(_ context.Context, snap model.Snapshot) error {
	select {
	case e.snaps <- snap:
	default:
	}
	return e.err
}

func (e *recordingExporter) Close() error {
	e.closed = true
	return nil
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should be stopped and offline", func() {
			So(svc, ShouldNotBeNil)
			So(svc.State(context.Background()).Running, ShouldBeFalse)
			So(svc.Peek(context.Background()).Status, ShouldEqual, model.StatusOffline)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithTickInterval(250*time.Millisecond),
			service.WithSeed(42),
			service.WithLogger(logger.Get().Named("test")),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["tickInterval"], ShouldEqual, "250ms")
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		exp := &recordingExporter{snaps: make(chan model.Snapshot, 1)}
		svc := newService(service.WithTickInterval(5*time.Millisecond), service.WithExporter(exp))
		ctx := context.Background()

		Convey("When stopping before starting", func() {
			err := svc.Stop(ctx)

			Convey("Then it should report not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				So(svc.GetStats()["started"], ShouldEqual, true)
				So(svc.GetStats()["exporter"], ShouldEqual, true)
				So(svc.Stop(ctx), ShouldBeNil)
			})

			Convey("And a running simulation should advance on its own", func() {
				svc.StartSimulation(ctx)
				So(eventually(func() bool { return svc.State(ctx).Ticks >= 3 }), ShouldBeTrue)
				So(svc.State(ctx).Health, ShouldBeLessThan, 100.0)

				Convey("And ticked snapshots should reach the exporter", func() {
					select {
					case snap := <-exp.snaps:
						So(snap.Status, ShouldEqual, model.StatusHealthy)
					case <-time.After(2 * time.Second):
						So("no export", ShouldBeEmpty)
					}
				})

				So(svc.Stop(ctx), ShouldBeNil)
				So(exp.closed, ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And a stopped simulation should not advance", func() {
				time.Sleep(30 * time.Millisecond)
				So(svc.State(ctx).Ticks, ShouldEqual, 0)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service whose model produces non-finite telemetry", t, func() {
		m := degradation.New(degradation.WithSource(constSource{f: math.NaN()}))
		svc := service.New(service.WithModel(m), service.WithTickInterval(5*time.Millisecond))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the simulation runs", func() {
			svc.StartSimulation(ctx)

			Convey("Then the ticker should force the crashed state", func() {
				So(eventually(func() bool { return svc.State(ctx).FaultLocation == model.FaultCrashed }), ShouldBeTrue)
				st := svc.State(ctx)
				So(st.Running, ShouldBeFalse)
				So(st.FaultLog[len(st.FaultLog)-1], ShouldContainSubstring, "Simulation crashed")
			})
		})
	})
}

func TestService_Command(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When sending START", func() {
			msg, err := svc.Command(ctx, service.CommandStart)

			Convey("Then the simulation should run", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Simulation started.")
				So(svc.State(ctx).Running, ShouldBeTrue)
			})

			Convey("And STOP should take it offline", func() {
				msg, err := svc.Command(ctx, service.CommandStop)
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Simulation stopped.")
				So(svc.State(ctx).FaultLocation, ShouldEqual, model.FaultOffline)
			})
		})

		Convey("When sending INJECT_FAULT", func() {
			msg, err := svc.Command(ctx, service.CommandInjectFault)

			Convey("Then the bearing fault should be active", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Catastrophic fault injected.")
				st := svc.State(ctx)
				So(st.FaultLocation, ShouldEqual, model.FaultBearing)
				So(st.Health, ShouldEqual, 80.0)
			})
		})

		Convey("When sending an unknown command", func() {
			before := svc.State(ctx)
			msg, err := svc.Command(ctx, "BOGUS")

			Convey("Then it should be rejected without mutating state", func() {
				So(errors.Is(err, service.ErrInvalidCommand), ShouldBeTrue)
				So(msg, ShouldBeEmpty)
				So(svc.State(ctx), ShouldResemble, before)
			})
		})

		Convey("When sending a lowercase command", func() {
			_, err := svc.Command(ctx, "start")

			Convey("Then commands should be case sensitive", func() {
				So(errors.Is(err, service.ErrInvalidCommand), ShouldBeTrue)
				So(svc.State(ctx).Running, ShouldBeFalse)
			})
		})
	})
}

func TestService_SnapshotAndCharts(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := newService()
		ctx := context.Background()
		svc.StartSimulation(ctx)

		Convey("When taking five snapshots", func() {
			var snap model.Snapshot
			for i := 0; i < 5; i++ {
				snap = svc.Snapshot(ctx)
			}

			Convey("Then each should advance the model", func() {
				So(snap.Health, ShouldAlmostEqual, 99.75, 1e-9)
				So(snap.Status, ShouldEqual, model.StatusHealthy)
				So(svc.Peek(ctx), ShouldResemble, snap)
			})

			Convey("And charts should reflect the history", func() {
				c := svc.Charts(ctx)
				So(len(c.TorqueHistory), ShouldEqual, 5)
				So(len(c.TempHistory), ShouldEqual, 5)
				So(len(c.RULProjection), ShouldEqual, model.RULHorizon)
			})
		})

		Convey("When nothing has ticked", func() {
			c := svc.Charts(ctx)

			Convey("Then histories should be empty but not nil", func() {
				So(c.TorqueHistory, ShouldNotBeNil)
				So(c.TempHistory, ShouldNotBeNil)
				So(c.TorqueHistory, ShouldBeEmpty)
			})
		})
	})
}

func TestService_PerformMaintenance(t *testing.T) {
	Convey("Given a degraded running service", t, func() {
		svc := newService()
		ctx := context.Background()
		svc.StartSimulation(ctx)
		svc.InjectFault(ctx)
		for i := 0; i < 10; i++ {
			svc.Snapshot(ctx)
		}

		Convey("When performing maintenance", func() {
			err := svc.PerformMaintenance(ctx)

			Convey("Then the machine should be stopped and pristine", func() {
				So(err, ShouldBeNil)
				st := svc.State(ctx)
				So(st.Running, ShouldBeFalse)
				So(st.Health, ShouldEqual, 100.0)
				So(st.Stiffness, ShouldEqual, 1.0)
				So(st.FaultLocation, ShouldEqual, model.FaultNone)
				So(st.History, ShouldBeEmpty)
				So(len(svc.FaultLog(ctx)), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a model whose maintenance fails", t, func() {
		svc := service.New(service.WithModel(panickyMachine{degradation.New()}))

		Convey("Then the failure should be returned as an error", func() {
			err := svc.PerformMaintenance(context.Background())
			So(errors.Is(err, service.ErrMaintenance), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "actuator jammed")
		})
	})
}
