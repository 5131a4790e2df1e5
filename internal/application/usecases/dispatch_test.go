package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
	"github.com/example/visa-scheduler/internal/notify"
)

func TestDispatchNotifyOnly(t *testing.T) {
	n := &fakeNotifier{receipt: notify.Receipt{Email: true}}
	r := &fakeRescheduler{}
	j := &memJournal{}

	d := Dispatcher{Rescheduler: r, Notifier: n, Journal: j}
	err := d.Dispatch(context.Background(), may10, []appointment.Date{may20}, appointment.Actions{appointment.ActionNotify})

	assert.NoError(t, err)
	assert.Equal(t, []sentNotice{{Chosen: may10, Extra: []appointment.Date{may20}}}, n.sent)
	assert.Empty(t, r.calls)
	assert.Equal(t, []string{"Email notification sent"}, j.msgs)
}

func TestDispatchRescheduleOnly(t *testing.T) {
	n := &fakeNotifier{}
	r := &fakeRescheduler{}
	j := &memJournal{}

	d := Dispatcher{Rescheduler: r, Notifier: n, Journal: j}
	err := d.Dispatch(context.Background(), may10, nil, appointment.Actions{appointment.ActionReschedule})

	assert.NoError(t, err)
	assert.Empty(t, n.sent)
	assert.Equal(t, []appointment.Date{may10}, r.calls)
	assert.Equal(t, []string{"Rescheduling completed, the new appointment date is Friday, May 10, 2024"}, j.msgs)
}

func TestDispatchRunsBothAndJoinsFailures(t *testing.T) {
	sendErr := errors.New("smtp down")
	n := &fakeNotifier{receipt: notify.Receipt{WhatsApp: true, WhatsAppDelivered: true}, err: sendErr}
	r := &fakeRescheduler{err: internaltypes.ErrTransactionFailed}
	j := &memJournal{}

	d := Dispatcher{Rescheduler: r, Notifier: n, Journal: j}
	err := d.Dispatch(context.Background(), may10, nil, appointment.Actions{appointment.ActionNotify, appointment.ActionReschedule})

	assert.ErrorIs(t, err, sendErr)
	assert.ErrorIs(t, err, internaltypes.ErrTransactionFailed)
	assert.Len(t, n.sent, 1)
	assert.Len(t, r.calls, 1)
	assert.Equal(t, []string{"WhatsApp notification sent"}, j.msgs)
}

func TestDispatchNotifyWithoutNotifier(t *testing.T) {
	d := Dispatcher{Rescheduler: &fakeRescheduler{}, Journal: &memJournal{}}
	err := d.Dispatch(context.Background(), may10, nil, appointment.Actions{appointment.ActionNotify})
	assert.ErrorIs(t, err, internaltypes.ErrNotificationConfigMissing)
}

func TestDispatchNoActions(t *testing.T) {
	n := &fakeNotifier{}
	r := &fakeRescheduler{}
	j := &memJournal{}
	err := Dispatcher{Rescheduler: r, Notifier: n, Journal: j}.Dispatch(context.Background(), may10, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, n.sent)
	assert.Empty(t, r.calls)
	assert.Empty(t, j.msgs)
}
