// Package templates provides the project template bundle.
//
// The default bundle is a Django REST Framework skeleton compiled into the
// binary. A directory on disk can be used instead, which is how custom
// skeletons are shipped.
//
// # Layout
//
//	manage.py
//	requirements.txt
//	README.md
//	.gitignore
//	config/     settings, urls, wsgi, asgi
//	app/        models, serializers, views, urls, admin, apps, tests, migrations
//	static/     favicon.ico (binary, copied untouched)
//
// # Placeholder
//
// File contents may contain {{project_name}} any number of times. It is a
// literal token, not template syntax: no other expressions are evaluated.
//
// # Usage
//
//	b := templates.Resolve(flagTemplateDir)
//	if err := b.Verify(); err != nil {
//	    return err
//	}
//	copier.Copy(b.FS, ".", dst, "myproject", copier.DefaultExcludes())
package templates
