// Package broker distributes run events to subscribers. Local fans events out
// in process; NATS publishes them on a subject per topic so other processes
// can follow a research run.
//
//	topic := broker.Local().Topic(ctx, runID.String())
//	sub, err := topic.Subscribe(ctx, myHook)
//	if err != nil {
//		return err
//	}
//	defer sub.Unsubscribe()
//
//	hook := broker.Hook(topic)
package broker
