package mocks

//go:generate mockery --name Store --srcpkg github.com/fireteam-lab/fireteam/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name MessageSink --srcpkg github.com/fireteam-lab/fireteam/internal/views --output ./views --outpkg viewsmocks --with-expecter
//go:generate mockery --name Notifier --srcpkg github.com/fireteam-lab/fireteam/internal/notify --output ./notify --outpkg notifymocks --with-expecter
