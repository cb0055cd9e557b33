// Package retry drives an unreliable operation until a validator accepts its
// result or the attempt budget runs out.
//
// Every attempt is recorded as an Attempt value. An attempt can fail in two
// distinct ways: the operation itself returned an error (or panicked), or it
// returned a value the validator rejected. Both are kept on the Attempt so
// callers can log or inspect them.
//
// When the budget is exhausted, Do still returns the last attempt. The value
// inside it is not guaranteed to be valid; callers must check Outcome.Accepted
// (or Outcome.Err) before trusting it.
//
// # Usage
//
//	outcome := retry.Do(ctx, func(ctx context.Context) (Token, error) {
//	    return fetchToken(ctx, req)
//	}, func(t Token) error {
//	    if t.Value == "" {
//	        return errors.New("empty token")
//	    }
//	    return nil
//	}, retry.WithMaxAttempts(5), retry.WithDelay(time.Second))
//
//	if !outcome.Accepted {
//	    // outcome.Last.Value may still be useful
//	}
package retry
