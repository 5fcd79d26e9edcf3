// Package authstate holds the observable authentication state shared by a
// session manager and its observers.
//
// A Holder starts in NoSession. The session manager moves it to Authenticated
// after each successful credential refresh; moving it back to NoSession is an
// explicit invalidation decided outside the request pipeline.
//
//	states := holder.Observe(ctx)
//	go func() {
//	    for s := range states {
//	        log.Printf("auth state: %s", s)
//	    }
//	}()
//
// Observe never replays the value current at subscription time.
package authstate
