package sqlinline

const QSelectUserConfigsByCategory = `--sql 16f55a57-1212-4eff-a632-193ce1e111d1
select
    id,
    category,
    value,
    label,
    description,
    language,
    sort_order,
    is_active,
    is_selected,
    selected_at
from v_user_configs
where (user_id = $1::uuid or user_id is null)
  and category = $2::text
  and is_active
order by sort_order, label;
`

const QSelectConfigPrimaryByID = `--sql 41d70686-bf59-4be0-a698-de1f5e608a1a
select id, category, value, label, is_active
from configs_primary
where id = $1::uuid
limit 1;
`

const QSelectConfigsAdmin = `--sql 3f4c1f6e-9a0e-4c1a-bb0a-2f2de36a9f51
select id, category, value, label, description, language, sort_order, is_active, created_at, updated_at
from configs_primary
where ($1::text is null or category = $1::text)
order by category, sort_order, label;
`

const QInsertConfigPrimary = `--sql fdf6fc65-2a03-4efe-8a8f-024d7b164f7f
insert into configs_primary (category, value, label, description, language, sort_order, is_active)
values ($1::text, $2::text, $3::text, $4::text, $5::text, $6::int, $7::boolean)
on conflict (category, value, language) do nothing
returning id, created_at;
`

const QUpdateConfigPrimary = `--sql 7c70f616-c411-4462-8e50-8d2799bb1be8
update configs_primary
set label = $2::text,
    description = $3::text,
    sort_order = $4::int,
    is_active = $5::boolean,
    updated_at = now()
where id = $1::uuid
returning id, updated_at;
`

const QDeleteConfigPrimary = `--sql 6907fac9-2ed3-4e7c-8cd3-ec7c28893d7f
delete from configs_primary
where id = $1::uuid
returning id;
`

const QInsertConfigSelection = `--sql 4e907cba-9443-46f1-badd-826186d8f0ec
insert into configs_user (user_id, config_id)
values ($1::uuid, $2::uuid)
on conflict (user_id, config_id) do nothing
returning id;
`

const QDeleteConfigSelection = `--sql 359a35f8-11d0-409b-bdba-eb36039f8fc6
delete from configs_user
where user_id = $1::uuid
  and config_id = $2::uuid
returning id;
`
